// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for universe, simulation and server
// settings.
//
// Every section has a DefaultX constructor and an XFromEnv variant where
// environment variables take precedence over defaults.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/physics"
)

// =============================================================================
// UNIVERSE CONFIGURATION
// =============================================================================

// UniverseConfig holds the shape of the play volume.
type UniverseConfig struct {
	BoundaryRadius float64 // Universe edge, distance from origin
	PushForce      float64 // Inward impulse applied beyond the edge
	DamageRate     float64 // Reserved; exposed to clients, never applied
	SectorRadius   float64 // Distance of sector reference points from origin
}

// DefaultUniverse returns the default universe configuration.
func DefaultUniverse() UniverseConfig {
	b := environment.DefaultBoundary()
	return UniverseConfig{
		BoundaryRadius: b.Radius,
		PushForce:      b.PushForce,
		DamageRate:     b.DamageRate,
		SectorRadius:   25000,
	}
}

// UniverseFromEnv returns universe configuration with environment variable overrides.
func UniverseFromEnv() UniverseConfig {
	cfg := DefaultUniverse()

	if r := getEnvFloat("BOUNDARY_RADIUS", 0); r > 0 {
		cfg.BoundaryRadius = r
	}
	if f := getEnvFloat("BOUNDARY_PUSH_FORCE", -1); f >= 0 {
		cfg.PushForce = f
	}
	if d := getEnvFloat("BOUNDARY_DAMAGE_RATE", -1); d >= 0 {
		cfg.DamageRate = d
	}
	if s := getEnvFloat("SECTOR_RADIUS", 0); s > 0 {
		cfg.SectorRadius = s
	}

	return cfg
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds tick and physics settings.
type SimConfig struct {
	TickRate      int     // Ticks per second
	SpawnRadius   float64 // Ships spawn uniformly inside this sphere
	LinearDamping float64 // Fraction of velocity removed per second
	MaxSpeed      float64 // Hard body speed cap, 0 disables
	TreeMin       int     // R-tree min node fan-out
	TreeMax       int     // R-tree max node fan-out
	Seed          int64   // Spawn RNG seed, 0 seeds from the clock
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	p := physics.DefaultConfig()
	return SimConfig{
		TickRate:      60,
		SpawnRadius:   5000,
		LinearDamping: p.LinearDamping,
		MaxSpeed:      p.MaxSpeed,
		TreeMin:       p.MinChildren,
		TreeMax:       p.MaxChildren,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if r := getEnvFloat("SPAWN_RADIUS", -1); r >= 0 {
		cfg.SpawnRadius = r
	}
	if d := getEnvFloat("LINEAR_DAMPING", -1); d >= 0 {
		cfg.LinearDamping = d
	}
	if s := getEnvFloat("MAX_SPEED", -1); s >= 0 {
		cfg.MaxSpeed = s
	}
	if seed := getEnvInt("SIM_SEED", 0); seed != 0 {
		cfg.Seed = int64(seed)
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls DoS protection and performance limits.
type ResourceLimits struct {
	MaxShips      int // Hard cap on piloted ships
	MaxHazards    int // Hard cap on active hazards
	MaxCelestials int // Hard cap on celestial objects
	MaxWSClients  int // Concurrent WebSocket spectators
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxShips:      game.DefaultLimits.MaxShips,
		MaxHazards:    game.DefaultLimits.MaxHazards,
		MaxCelestials: game.DefaultLimits.MaxCelestials,
		MaxWSClients:  100,
	}
}

// LimitsFromEnv returns limits with environment variable overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if n := getEnvInt("MAX_SHIPS", 0); n > 0 {
		cfg.MaxShips = n
	}
	if n := getEnvInt("MAX_HAZARDS", 0); n > 0 {
		cfg.MaxHazards = n
	}
	if n := getEnvInt("MAX_CELESTIALS", 0); n > 0 {
		cfg.MaxCelestials = n
	}
	if n := getEnvInt("MAX_WS_CLIENTS", 0); n > 0 {
		cfg.MaxWSClients = n
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	DebugPort      int
	AllowedOrigins []string
	ScenarioPath   string // YAML scenario loaded at startup, empty for none
	EventLogPath   string // JSONL event journal, empty keeps events in memory
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		DebugPort:      6060,
		AllowedOrigins: []string{"*"},
		EventLogPath:   "events.jsonl",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if p := getEnvInt("DEBUG_PORT", 0); p > 0 {
		cfg.DebugPort = p
	}
	if o := os.Getenv("ALLOWED_ORIGINS"); o != "" {
		cfg.AllowedOrigins = splitList(o)
	}
	if p, ok := os.LookupEnv("SCENARIO_PATH"); ok {
		cfg.ScenarioPath = p
	}
	if p, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = p
	}

	return cfg
}

// =============================================================================
// AUTH CONFIGURATION
// =============================================================================

// AuthConfig holds admin authentication settings. Admin auth is disabled
// when JWTSecret is empty.
type AuthConfig struct {
	JWTSecret    string
	PasswordHash string // bcrypt hash of the admin password
	TokenTTLMin  int
}

// DefaultAuth returns the default auth configuration.
func DefaultAuth() AuthConfig {
	return AuthConfig{TokenTTLMin: 60}
}

// AuthFromEnv returns auth configuration with environment variable overrides.
func AuthFromEnv() AuthConfig {
	cfg := DefaultAuth()

	cfg.JWTSecret = os.Getenv("ADMIN_JWT_SECRET")
	cfg.PasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	if ttl := getEnvInt("ADMIN_TOKEN_TTL_MIN", 0); ttl > 0 {
		cfg.TokenTTLMin = ttl
	}

	return cfg
}

// Enabled reports whether admin auth is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Universe UniverseConfig
	Sim      SimConfig
	Limits   ResourceLimits
	Server   ServerConfig
	Auth     AuthConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Universe: UniverseFromEnv(),
		Sim:      SimFromEnv(),
		Limits:   LimitsFromEnv(),
		Server:   ServerFromEnv(),
		Auth:     AuthFromEnv(),
	}
}

// Engine builds the game engine configuration.
func (c AppConfig) Engine() game.EngineConfig {
	phys := physics.DefaultConfig()
	phys.LinearDamping = c.Sim.LinearDamping
	phys.MaxSpeed = c.Sim.MaxSpeed
	phys.MinChildren = c.Sim.TreeMin
	phys.MaxChildren = c.Sim.TreeMax

	return game.EngineConfig{
		TickRate: c.Sim.TickRate,
		Environment: environment.Config{
			Boundary: environment.UniverseBoundary{
				Radius:     c.Universe.BoundaryRadius,
				DamageRate: c.Universe.DamageRate,
				PushForce:  c.Universe.PushForce,
			},
			SectorRadius: c.Universe.SectorRadius,
		},
		Physics: phys,
		Limits: game.ResourceLimits{
			MaxShips:         c.Limits.MaxShips,
			MaxHazards:       c.Limits.MaxHazards,
			MaxCelestials:    c.Limits.MaxCelestials,
			MaxSnapshotShips: c.Limits.MaxShips,
		},
		SpawnRadius: c.Sim.SpawnRadius,
		Seed:        c.Sim.Seed,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
