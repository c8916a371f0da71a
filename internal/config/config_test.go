package config

import (
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Universe.BoundaryRadius != 100000 || cfg.Universe.PushForce != 50 || cfg.Universe.DamageRate != 10 {
		t.Errorf("unexpected universe defaults %+v", cfg.Universe)
	}
	if cfg.Universe.SectorRadius != 25000 {
		t.Errorf("unexpected sector radius %f", cfg.Universe.SectorRadius)
	}
	if cfg.Sim.TickRate != 60 {
		t.Errorf("unexpected tick rate %d", cfg.Sim.TickRate)
	}
	if cfg.Auth.Enabled() {
		t.Error("auth should be disabled without a secret")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOUNDARY_RADIUS", "5000")
	t.Setenv("BOUNDARY_PUSH_FORCE", "0")
	t.Setenv("SECTOR_RADIUS", "1200.5")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_SHIPS", "12")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCENARIO_PATH", "scenarios/default.yaml")
	t.Setenv("EVENT_LOG_PATH", "")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")

	cfg := Load()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"boundary radius", cfg.Universe.BoundaryRadius, 5000.0},
		{"push force zero allowed", cfg.Universe.PushForce, 0.0},
		{"sector radius", cfg.Universe.SectorRadius, 1200.5},
		{"tick rate", cfg.Sim.TickRate, 30},
		{"port", cfg.Server.Port, 8080},
		{"max ships", cfg.Limits.MaxShips, 12},
		{"origins", len(cfg.Server.AllowedOrigins), 2},
		{"scenario", cfg.Server.ScenarioPath, "scenarios/default.yaml"},
		{"event log disabled", cfg.Server.EventLogPath, ""},
		{"auth enabled", cfg.Auth.Enabled(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	t.Setenv("BOUNDARY_RADIUS", "-10")

	cfg := Load()
	if cfg.Sim.TickRate != 60 {
		t.Errorf("non-numeric TICK_RATE should be ignored, got %d", cfg.Sim.TickRate)
	}
	if cfg.Universe.BoundaryRadius != 100000 {
		t.Errorf("negative radius should be ignored, got %f", cfg.Universe.BoundaryRadius)
	}
}

func TestEngineConfig(t *testing.T) {
	t.Setenv("BOUNDARY_RADIUS", "777")
	t.Setenv("MAX_HAZARDS", "3")

	ec := Load().Engine()
	if ec.Environment.Boundary.Radius != 777 {
		t.Errorf("boundary radius not carried: %+v", ec.Environment.Boundary)
	}
	if ec.Limits.MaxHazards != 3 {
		t.Errorf("hazard limit not carried: %+v", ec.Limits)
	}
	if ec.TickRate != 60 {
		t.Errorf("tick rate not carried: %d", ec.TickRate)
	}
}
