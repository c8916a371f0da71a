package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/spatial"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
	"github.com/pedro-modular/vibecode-pilot-game/internal/render"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the game loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest lock-free immutable snapshot
	GetSnapshot() *game.Snapshot

	// Environment reads
	Environment() environment.Environment
	Sectors() []spatial.Sector
	ActiveSector(p vector.Vector3D) (spatial.Sector, bool)
	Hazards() []environment.Hazard
	CelestialObjects() []environment.CelestialObject

	// Environment writes
	AddHazard(h environment.Hazard) (environment.HazardID, error)
	RemoveHazard(id environment.HazardID) error
	AddCelestialObject(o environment.CelestialObject) (environment.CelestialID, error)

	// Ships
	Ships() []game.ShipSnapshot
	Ship(id string) (game.ShipSnapshot, bool)
	AddShip(name string) (game.ShipSnapshot, error)
	RemoveShip(id string) error
	SetControls(id string, c game.Controls) error

	// Session
	Session() game.SessionState
	SetPaused(paused bool) game.SessionState
	AddScore(delta int64) game.SessionState

	EventLogStats() game.EventLogStats
	Limits() game.ResourceLimits
}

var _ EngineInterface = (*game.Engine)(nil)

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, only local development origins are allowed.
	CORSOrigins []string

	// Auth guards mutating routes. Nil leaves them open.
	Auth *AdminAuth

	// MapSize is the default edge length of /api/map.png.
	MapSize int

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine  EngineInterface
	mapSize int
}

// DefaultCORSOrigins are used when RouterConfig.CORSOrigins is nil.
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: Apart from the rate limiter's cleanup goroutine (created only
// when RouterConfig.RateLimiter is nil) this has no side effects: no
// listeners are opened and no game workers are launched.
//
// Example:
//
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	mapSize := cfg.MapSize
	if mapSize <= 0 {
		mapSize = render.DefaultMapSize
	}
	h := &routerHandlers{
		engine:  cfg.Engine,
		mapSize: mapSize,
	}

	// admin wraps mutating routes when auth is configured
	admin := func(r chi.Router) chi.Router {
		if cfg.Auth == nil {
			return r
		}
		return r.With(cfg.Auth.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		// Snapshot and stats
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/map.png", h.handleMap)

		// Environment
		r.Get("/environment", h.handleGetEnvironment)
		r.Get("/sectors", h.handleGetSectors)
		r.Get("/sectors/active", h.handleGetActiveSector)
		r.Get("/hazards", h.handleGetHazards)
		admin(r).Post("/hazards", h.handleAddHazard)
		admin(r).Delete("/hazards/{id}", h.handleRemoveHazard)
		r.Get("/celestials", h.handleGetCelestials)
		admin(r).Post("/celestials", h.handleAddCelestial)

		// Ships
		r.Get("/ships", h.handleGetShips)
		r.Get("/ships/{id}", h.handleGetShip)
		r.Post("/ships", h.handleAddShip)
		admin(r).Delete("/ships/{id}", h.handleRemoveShip)
		r.Post("/ships/{id}/controls", h.handleSetControls)

		// Session
		r.Get("/session", h.handleGetSession)
		admin(r).Post("/session/pause", h.handlePause)
		admin(r).Post("/session/score", h.handleScore)

		// Admin login
		if cfg.Auth != nil {
			r.Post("/admin/token", cfg.Auth.HandleToken)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}
