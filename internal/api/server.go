package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// ServerOptions configures NewServer. Zero values pick defaults.
type ServerOptions struct {
	CORSOrigins       []string
	Auth              *AdminAuth
	RateLimit         RateLimitConfig
	MaxWSClients      int
	BroadcastInterval time.Duration
	MapSize           int
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for real-time updates.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	interval    time.Duration

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting the hub or opening network listeners.
func NewServer(engine EngineInterface, opts ServerOptions) *Server {
	rl := opts.RateLimit
	if rl.RequestsPerSecond <= 0 {
		rl = DefaultRateLimitConfig
	}

	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(NewOriginChecker(originsOrDefault(opts.CORSOrigins)), opts.MaxWSClients),
		rateLimiter: NewIPRateLimiter(rl),
		interval:    opts.BroadcastInterval,
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		RateLimiter: s.rateLimiter,
		CORSOrigins: opts.CORSOrigins,
		Auth:        opts.Auth,
		MapSize:     opts.MapSize,
	})

	// WebSocket route needs the hub instance
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

func originsOrDefault(origins []string) []string {
	if origins == nil {
		return DefaultCORSOrigins
	}
	return origins
}

// Start runs the hub and the broadcast loop, then serves addr until
// Shutdown. This is the ONLY method that starts goroutines or opens
// network listeners.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine, s.interval)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🗺️  Sector map: http://localhost%s/api/map.png", addr)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(engine, api.ServerOptions{})
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests, closes spectator connections and
// stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return err
}
