package game

import (
	"math"
	"testing"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/physics"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

func testShip() *Ship {
	cfg := physics.DefaultConfig()
	cfg.LinearDamping = 0
	cfg.SleepSpeed = 0
	sim := physics.NewSim(cfg)
	body := sim.Spawn(physics.BodyDesc{Kind: physics.KindSpacecraft, Radius: ShipRadius, Mass: ShipMass})
	return newShip("test", body)
}

func TestFlySpeedClamp(t *testing.T) {
	tests := []struct {
		name     string
		throttle float64
		ticks    int
		want     float64
	}{
		{"one tick", 1, 1, ShipAcceleration},
		{"saturates at max", 1, 1000, ShipMaxSpeed},
		{"never negative", -1, 10, 0},
		{"half throttle", 0.5, 10, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testShip()
			s.Controls = Controls{Throttle: tt.throttle}
			for i := 0; i < tt.ticks; i++ {
				s.Fly(1.0 / 60)
			}
			if math.Abs(s.Speed-tt.want) > 1e-9 {
				t.Errorf("speed = %f, want %f", s.Speed, tt.want)
			}
		})
	}
}

func TestFlyAttitudeLimits(t *testing.T) {
	s := testShip()
	s.Controls = Controls{Pitch: -1, Yaw: 1, Roll: 1}

	for i := 0; i < 1000; i++ {
		s.Fly(1.0 / 60)
	}

	if math.Abs(s.Euler[0]-ShipMaxPitch) > 1e-9 {
		t.Errorf("pitch should clamp at %f, got %f", ShipMaxPitch, s.Euler[0])
	}
	if math.Abs(s.Euler[2]-ShipMaxRoll) > 1e-9 {
		t.Errorf("roll should clamp at %f, got %f", ShipMaxRoll, s.Euler[2])
	}
	if math.Abs(s.Euler[1]) > math.Pi+1e-9 {
		t.Errorf("yaw should stay wrapped, got %f", s.Euler[1])
	}
}

func TestFlyThrustAlongNose(t *testing.T) {
	s := testShip()
	s.Speed = 10

	s.Fly(0.5)

	v := s.body.Velocity()
	if v.Distance(vector.New(0, 0, -5)) > 1e-9 {
		t.Errorf("expected velocity (0,0,-5), got %+v", v)
	}

	// Yawing turns the nose away from -Z.
	s.Controls = Controls{Yaw: 1}
	s.Fly(0)
	f := s.Forward()
	if math.Abs(f.Length()-1) > 1e-9 {
		t.Errorf("forward should stay unit length, got %+v", f)
	}
	if f.Distance(vector.New(0, 0, -1)) < 1e-6 {
		t.Error("yaw input should change the heading")
	}
}

func TestControlsClamp(t *testing.T) {
	c := Controls{Throttle: math.NaN(), Pitch: 2, Roll: -2, Yaw: 0.25}.Clamp()
	want := Controls{Throttle: 0, Pitch: 1, Roll: -1, Yaw: 0.25}
	if c != want {
		t.Errorf("Clamp = %+v, want %+v", c, want)
	}
}

func TestShipSnapshotOutside(t *testing.T) {
	s := testShip()
	s.body.SetTranslation(vector.New(0, 200, 0))

	if s.Snapshot(100).Outside != true {
		t.Error("ship at 200 should be outside radius 100")
	}
	if s.Snapshot(300).Outside {
		t.Error("ship at 200 should be inside radius 300")
	}
}
