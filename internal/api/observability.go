package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
)

// Metrics with bounded cardinality (no per-ship or per-hazard labels)
var (
	// Game engine metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in game tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.016, 0.025, 0.05},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "map_render_duration_seconds",
		Help:    "Time spent rendering the sector map",
		Buckets: []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.25},
	})

	shipCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_ship_count",
		Help: "Current number of ships",
	})

	shipsOutside = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_ships_outside_boundary",
		Help: "Ships currently beyond the universe boundary",
	})

	bodyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "physics_body_count",
		Help: "Bodies in the physics world",
	})

	hazardCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "environment_hazard_count",
		Help: "Active hazards",
	})

	celestialCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "environment_celestial_count",
		Help: "Registered celestial objects",
	})

	occupiedSectors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "environment_occupied_sectors",
		Help: "Sectors holding at least one active object",
	})

	hazardsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "environment_hazards_expired_total",
		Help: "Hazards removed after their duration ran out",
	})

	boundaryPushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "environment_boundary_pushes_total",
		Help: "Inward impulses applied by the boundary enforcer",
	})

	// Event log metrics
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin check or auth",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "auth"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be loopback in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// DebugHandler returns the pprof, metrics and health endpoints.
func DebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the internal observability server in the
// background. The returned server is nil when disabled.
// CRITICAL: This MUST bind to loopback only to prevent pprof-based DoS
func StartDebugServer(cfg ObservabilityConfig) *http.Server {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	// SECURITY: Validate address is loopback
	if !isLoopbackAddr(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost for security")
		_, port, err := net.SplitHostPort(cfg.ListenAddr)
		if err != nil || port == "" {
			port = "6060"
		}
		cfg.ListenAddr = net.JoinHostPort("127.0.0.1", port)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           DebugHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return srv
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordTick records one engine tick. Install it as Engine.OnTick.
func RecordTick(stats game.TickStats) {
	tickDuration.Observe(stats.Duration.Seconds())
	shipCount.Set(float64(stats.Ships))
	shipsOutside.Set(float64(stats.ShipsOutside))
	bodyCount.Set(float64(stats.Bodies))
	hazardCount.Set(float64(stats.Hazards))
	celestialCount.Set(float64(stats.Celestials))
	occupiedSectors.Set(float64(stats.OccupiedSectors))
	if stats.Expired > 0 {
		hazardsExpired.Add(float64(stats.Expired))
	}
	if stats.Pushes > 0 {
		boundaryPushes.Add(float64(stats.Pushes))
	}
}

// RecordRender records map render timing
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// UpdateEventLogStats mirrors the event log counters. Called periodically.
func UpdateEventLogStats(stats game.EventLogStats) {
	eventLogTotal.Set(float64(stats.Total))
	eventLogDropped.Set(float64(stats.Dropped))
}

// RecordConnectionRejected increments the rejection counter
// reason must be one of: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "auth"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// metricsMiddleware records latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
