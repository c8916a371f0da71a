package environment

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/physics"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// fakeBody records impulses instead of integrating them.
type fakeBody struct {
	id       string
	pos      vector.Vector3D
	impulses []vector.Vector3D
}

func (b *fakeBody) ID() string                   { return b.id }
func (b *fakeBody) Translation() vector.Vector3D { return b.pos }
func (b *fakeBody) ApplyImpulse(i vector.Vector3D, wake bool) {
	b.impulses = append(b.impulses, i)
}

// fakeWorld reports every body as intersecting the sensor.
type fakeWorld struct {
	created []physics.ColliderDesc
	bodies  []*fakeBody
}

func (w *fakeWorld) CreateCollider(desc physics.ColliderDesc) physics.ColliderHandle {
	w.created = append(w.created, desc)
	return physics.ColliderHandle(len(w.created) - 1)
}

func (w *fakeWorld) IntersectionsWith(h physics.ColliderHandle) []physics.RigidBody {
	out := make([]physics.RigidBody, len(w.bodies))
	for i, b := range w.bodies {
		out[i] = b
	}
	return out
}

func TestHazardTwoTicksExpires(t *testing.T) {
	r := NewHazardRegistry()
	r.Add(Hazard{ID: "h", Type: HazardRadiation, Radius: 10, Duration: Seconds(2.0)})

	if expired := r.Tick(1.0); len(expired) != 0 || r.Len() != 1 {
		t.Fatalf("hazard should survive first tick, len=%d", r.Len())
	}
	expired := r.Tick(1.0)
	if r.Len() != 0 {
		t.Errorf("hazard should be removed after second tick, len=%d", r.Len())
	}
	if len(expired) != 1 || expired[0].ID != "h" {
		t.Errorf("expected h to be reported expired, got %+v", expired)
	}
}

func TestPermanentHazardSurvives(t *testing.T) {
	r := NewHazardRegistry()
	r.Add(Hazard{ID: "p", Type: HazardSolarFlare, Radius: 10})

	for i := 0; i < 1000; i++ {
		r.Tick(10)
	}
	if r.Len() != 1 {
		t.Error("permanent hazard must survive any number of ticks")
	}
}

func TestHazardTickStableFilter(t *testing.T) {
	r := NewHazardRegistry()
	r.Add(Hazard{ID: "A", Type: HazardRadiation, Radius: 1, Duration: Seconds(5)})
	r.Add(Hazard{ID: "B", Type: HazardAsteroidField, Radius: 1})
	r.Add(Hazard{ID: "C", Type: HazardSolarFlare, Radius: 1, Duration: Seconds(0.5)})

	r.Tick(1.0)

	got := r.List()
	var ids []HazardID
	for _, h := range got {
		ids = append(ids, h.ID)
	}
	// Only hazards whose remaining duration reaches zero go: A keeps 4s, C expires.
	want := []HazardID{"A", "B"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, ids[i], want[i])
		}
	}
	if d := *got[0].Duration; math.Abs(d-4) > 1e-12 {
		t.Errorf("A should have 4s left, got %f", d)
	}
}

func TestHazardTickLeavesOnlyPermanent(t *testing.T) {
	r := NewHazardRegistry()
	r.Add(Hazard{ID: "A", Type: HazardRadiation, Radius: 1, Duration: Seconds(5)})
	r.Add(Hazard{ID: "B", Type: HazardAsteroidField, Radius: 1})
	r.Add(Hazard{ID: "C", Type: HazardSolarFlare, Radius: 1, Duration: Seconds(0.5)})

	// Five one-second ticks: C goes on the first, A on the fifth.
	for i := 0; i < 5; i++ {
		r.Tick(1.0)
	}

	got := r.List()
	if len(got) != 1 || got[0].ID != "B" {
		t.Errorf("expected only [B], got %+v", got)
	}
}

func TestHazardListIsCopy(t *testing.T) {
	r := NewHazardRegistry()
	id := r.Add(Hazard{Type: HazardRadiation, Radius: 1, Duration: Seconds(3)})
	if id == "" {
		t.Fatal("Add should assign an id")
	}

	list := r.List()
	*list[0].Duration = 100

	h, _ := r.Get(id)
	if *h.Duration != 3 {
		t.Errorf("mutating a listed hazard leaked into the registry: %f", *h.Duration)
	}
}

func TestHazardRemoveAndAt(t *testing.T) {
	r := NewHazardRegistry()
	r.Add(Hazard{ID: "near", Type: HazardRadiation, Position: vector.New(0, 0, 0), Radius: 10})
	r.Add(Hazard{ID: "far", Type: HazardRadiation, Position: vector.New(1000, 0, 0), Radius: 10})

	at := r.At(vector.New(5, 0, 0))
	if len(at) != 1 || at[0].ID != "near" {
		t.Errorf("At returned %+v", at)
	}

	if _, ok := r.Remove("near"); !ok {
		t.Fatal("Remove should find near")
	}
	if _, ok := r.Remove("near"); ok {
		t.Error("second Remove should fail")
	}
	if r.Len() != 1 {
		t.Errorf("expected one hazard left, got %d", r.Len())
	}
}

func TestHazardValidate(t *testing.T) {
	tests := []struct {
		name string
		h    Hazard
		ok   bool
	}{
		{"valid timed", Hazard{Type: HazardRadiation, Radius: 1, Intensity: 2, Duration: Seconds(1)}, true},
		{"valid permanent", Hazard{Type: HazardSolarFlare, Radius: 1}, true},
		{"unknown type", Hazard{Type: "lava", Radius: 1}, false},
		{"zero radius", Hazard{Type: HazardRadiation}, false},
		{"nan position", Hazard{Type: HazardRadiation, Radius: 1, Position: vector.New(math.NaN(), 0, 0)}, false},
		{"zero duration", Hazard{Type: HazardRadiation, Radius: 1, Duration: Seconds(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.h.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidHazard) {
				t.Errorf("expected ErrInvalidHazard, got %v", err)
			}
		})
	}
}

func TestCelestialRotationAccumulates(t *testing.T) {
	r := NewCelestialRegistry()
	spin := r.Add(CelestialObject{Type: CelestialPlanet, Radius: 100, RotationSpeed: RadiansPerSecond(0.5)})
	still := r.Add(CelestialObject{Type: CelestialStar, Radius: 500})

	r.Tick(1)
	r.Tick(1)

	o, _ := r.Get(spin)
	if math.Abs(o.Rotation-1.0) > 1e-12 {
		t.Errorf("expected rotation 1.0, got %f", o.Rotation)
	}
	s, _ := r.Get(still)
	if s.Rotation != 0 {
		t.Errorf("object without rotation speed should not spin, got %f", s.Rotation)
	}

	// Wraps into [0, 2π).
	for i := 0; i < 20; i++ {
		r.Tick(1)
	}
	o, _ = r.Get(spin)
	if o.Rotation < 0 || o.Rotation >= 2*math.Pi {
		t.Errorf("rotation %f outside [0, 2π)", o.Rotation)
	}
	if want := math.Mod(11.0, 2*math.Pi); math.Abs(o.Rotation-want) > 1e-9 {
		t.Errorf("expected rotation %f, got %f", want, o.Rotation)
	}
}

func TestCelestialNegativeSpinWraps(t *testing.T) {
	r := NewCelestialRegistry()
	id := r.Add(CelestialObject{Type: CelestialAsteroid, Radius: 1, RotationSpeed: RadiansPerSecond(-1)})
	r.Tick(1)

	o, _ := r.Get(id)
	if want := 2*math.Pi - 1; math.Abs(o.Rotation-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, o.Rotation)
	}
}

func TestCelestialOrientation(t *testing.T) {
	o := CelestialObject{Rotation: math.Pi / 2}
	fwd := vector.New(1, 0, 0).Rotate(o.Orientation())
	if fwd.Distance(vector.New(0, 0, -1)) > 1e-9 {
		t.Errorf("quarter turn about +Y should map +X to -Z, got %+v", fwd)
	}
}

func TestGravityFieldText(t *testing.T) {
	var g GravityField
	if err := g.UnmarshalText([]byte("Strong")); err != nil || g != GravityStrong {
		t.Errorf("parse name: %v %v", g, err)
	}
	if err := g.UnmarshalText([]byte("1")); err != nil || g != GravityWeak {
		t.Errorf("parse number: %v %v", g, err)
	}
	if err := g.UnmarshalText([]byte("9")); err == nil {
		t.Error("out of range level should fail")
	}
	b, _ := GravityMedium.MarshalText()
	if string(b) != "medium" {
		t.Errorf("MarshalText = %s", b)
	}
}

func TestBoundaryImpulse(t *testing.T) {
	b := DefaultBoundary()
	R := b.Radius

	tests := []struct {
		name  string
		pos   vector.Vector3D
		apply bool
	}{
		{"outside on +x", vector.New(R+10, 0, 0), true},
		{"inside on +x", vector.New(R-10, 0, 0), false},
		{"exactly on radius", vector.New(R, 0, 0), false},
		{"origin", vector.Zero(), false},
		{"non-finite", vector.New(math.Inf(1), 0, 0), false},
		{"outside diagonal", vector.New(R, R, R), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impulse, ok := BoundaryImpulse(tt.pos, b)
			if ok != tt.apply {
				t.Fatalf("apply = %v, want %v", ok, tt.apply)
			}
			if !ok {
				return
			}
			if math.Abs(impulse.Length()-b.PushForce) > 1e-9 {
				t.Errorf("impulse magnitude %f, want %f", impulse.Length(), b.PushForce)
			}
			if impulse.Dot(tt.pos) >= 0 {
				t.Errorf("impulse %+v does not point inward", impulse)
			}
		})
	}

	impulse, _ := BoundaryImpulse(vector.New(R+10, 0, 0), b)
	if !(impulse.X < 0) || impulse.Y != 0 || impulse.Z != 0 {
		t.Errorf("expected (-x, 0, 0), got %+v", impulse)
	}
}

func TestEnforceAppliesOnlyOutside(t *testing.T) {
	world := &fakeWorld{}
	b := DefaultBoundary()
	enforcer := NewBoundaryEnforcer(world, b)

	if len(world.created) != 1 || !world.created[0].Sensor || world.created[0].Radius != b.Radius {
		t.Fatalf("expected one boundary sensor, got %+v", world.created)
	}

	outside := &fakeBody{id: "out", pos: vector.New(b.Radius+10, 0, 0)}
	inside := &fakeBody{id: "in", pos: vector.New(b.Radius-10, 0, 0)}
	origin := &fakeBody{id: "origin"}
	world.bodies = []*fakeBody{outside, inside, origin}

	pushes := enforcer.Enforce()

	if len(pushes) != 1 || pushes[0].BodyID != "out" {
		t.Fatalf("expected one push for out, got %+v", pushes)
	}
	if len(outside.impulses) != 1 || !(outside.impulses[0].X < 0) || outside.impulses[0].Y != 0 || outside.impulses[0].Z != 0 {
		t.Errorf("unexpected impulse %+v", outside.impulses)
	}
	if len(inside.impulses) != 0 || len(origin.impulses) != 0 {
		t.Error("bodies inside the boundary must not be pushed")
	}
}

func TestEnforceWithSim(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.SleepSpeed = 0
	sim := physics.NewSim(cfg)
	b := DefaultBoundary()
	enforcer := NewBoundaryEnforcer(sim, b)

	straddling := sim.Spawn(physics.BodyDesc{
		ID:       "ship",
		Kind:     physics.KindSpacecraft,
		Position: vector.New(b.Radius+10, 0, 0),
		Radius:   20,
	})

	pushes := enforcer.Enforce()
	if len(pushes) != 1 {
		t.Fatalf("expected one push, got %d", len(pushes))
	}
	if v := straddling.Velocity(); !(v.X < 0) || v.Y != 0 || v.Z != 0 {
		t.Errorf("expected inward velocity, got %+v", v)
	}
}

// TestEnforceIgnoresEscapedBody verifies a body clear of the sensor is not pushed
func TestEnforceIgnoresEscapedBody(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.SleepSpeed = 0
	sim := physics.NewSim(cfg)
	b := DefaultBoundary()
	enforcer := NewBoundaryEnforcer(sim, b)

	escaped := sim.Spawn(physics.BodyDesc{
		ID:       "runaway",
		Kind:     physics.KindSpacecraft,
		Position: vector.New(b.Radius+50, 0, 0),
		Radius:   20,
	})

	if pushes := enforcer.Enforce(); len(pushes) != 0 {
		t.Fatalf("expected no pushes, got %d", len(pushes))
	}
	if v := escaped.Velocity(); !v.IsZero() {
		t.Errorf("escaped body should keep its velocity, got %+v", v)
	}
}

func TestManagerReadAfterWrite(t *testing.T) {
	m := NewManager(&fakeWorld{}, DefaultConfig())

	id := m.AddHazard(Hazard{Type: HazardRadiation, Radius: 50, Duration: Seconds(3)})
	cid := m.AddCelestialObject(CelestialObject{Type: CelestialPlanet, Radius: 100, Position: vector.New(1000, 0, 0)})

	m.Update(1.0)

	env := m.GetEnvironment()
	if len(env.Hazards) != 1 || env.Hazards[0].ID != id {
		t.Errorf("hazard missing from view: %+v", env.Hazards)
	}
	if len(env.CelestialObjects) != 1 || env.CelestialObjects[0].ID != cid {
		t.Errorf("celestial missing from view: %+v", env.CelestialObjects)
	}
	if len(env.Sectors) != 64 {
		t.Errorf("expected 64 sectors, got %d", len(env.Sectors))
	}
	if env.Boundary != DefaultBoundary() {
		t.Errorf("unexpected boundary %+v", env.Boundary)
	}
}

func TestManagerHazardSectorMembership(t *testing.T) {
	m := NewManager(&fakeWorld{}, DefaultConfig())
	target := m.Sectors()[12]

	id := m.AddHazard(Hazard{Type: HazardSolarFlare, Position: target.Position, Radius: 5, Duration: Seconds(1.5)})
	s, _ := m.Sector(target.ID)
	if len(s.Hazards) != 1 || s.Hazards[0] != string(id) {
		t.Fatalf("hazard not attached to nearest sector: %+v", s.Hazards)
	}

	res := m.Update(1)
	if len(res.Expired) != 0 {
		t.Fatal("hazard should not expire yet")
	}
	res = m.Update(1)
	if len(res.Expired) != 1 {
		t.Fatal("hazard should expire on second update")
	}
	s, _ = m.Sector(target.ID)
	if len(s.Hazards) != 0 {
		t.Errorf("expired hazard still attached: %+v", s.Hazards)
	}
}

func TestManagerRemovePermanentHazard(t *testing.T) {
	m := NewManager(&fakeWorld{}, DefaultConfig())
	id := m.AddHazard(Hazard{Type: HazardAsteroidField, Radius: 5})

	if !m.RemoveHazard(id) {
		t.Fatal("RemoveHazard should succeed")
	}
	if m.RemoveHazard(id) {
		t.Error("second RemoveHazard should fail")
	}
	if st := m.Stats(); st.Hazards != 0 || st.Grid.Hazards != 0 {
		t.Errorf("hazard still tracked: %+v", st)
	}
}

func TestManagerSanitizesDT(t *testing.T) {
	m := NewManager(&fakeWorld{}, DefaultConfig())
	m.AddHazard(Hazard{ID: "h", Type: HazardRadiation, Radius: 1, Duration: Seconds(1)})

	for _, dt := range []float64{-5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		res := m.Update(dt)
		if res.DT != 0 {
			t.Errorf("dt %f should clamp to 0, got %f", dt, res.DT)
		}
	}

	h := m.Hazards()
	if len(h) != 1 || *h[0].Duration != 1 {
		t.Errorf("bad dt corrupted hazard duration: %+v", h)
	}
}

func TestManagerUpdateOrderPushesAfterExpiry(t *testing.T) {
	world := &fakeWorld{}
	m := NewManager(world, DefaultConfig())
	world.bodies = []*fakeBody{{id: "far", pos: vector.New(2e5, 0, 0)}}
	m.AddHazard(Hazard{Type: HazardRadiation, Radius: 1, Duration: Seconds(0.1)})

	res := m.Update(1)
	if len(res.Expired) != 1 || len(res.Pushes) != 1 {
		t.Errorf("expected one expiry and one push, got %+v", res)
	}
}

func TestManagerOccupy(t *testing.T) {
	m := NewManager(&fakeWorld{}, DefaultConfig())
	sectors := m.Sectors()

	m.Occupy([]Occupant{
		{ID: "a", Position: sectors[5].Position},
		{ID: "b", Position: sectors[5].Position},
		{ID: "nan", Position: vector.New(math.NaN(), 0, 0)},
	})
	s, _ := m.Sector(sectors[5].ID)
	if len(s.ActiveObjects) != 2 {
		t.Errorf("expected two active objects, got %v", s.ActiveObjects)
	}

	m.Occupy(nil)
	if m.Stats().Grid.ActiveObjects != 0 {
		t.Error("Occupy(nil) should clear occupancy")
	}
}

func TestGetActiveSector(t *testing.T) {
	m := NewManager(&fakeWorld{}, DefaultConfig())
	target := m.Sectors()[33]

	got, ok := m.GetActiveSector(target.Position.Add(vector.New(1, 1, 1)))
	if !ok || got.ID != target.ID {
		t.Errorf("expected %s, got %s", target.ID, got.ID)
	}
}

// TestGravityFieldJSON verifies JSON accepts both the level name and its number
func TestGravityFieldJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GravityField
		wantErr bool
	}{
		{"name", `{"type":"planet","radius":1,"gravityField":"weak"}`, GravityWeak, false},
		{"number", `{"type":"planet","radius":1,"gravityField":1}`, GravityWeak, false},
		{"strong number", `{"type":"star","radius":1,"gravityField":3}`, GravityStrong, false},
		{"quoted number", `{"type":"planet","radius":1,"gravityField":"2"}`, GravityMedium, false},
		{"out of range", `{"type":"planet","radius":1,"gravityField":7}`, 0, true},
		{"unknown name", `{"type":"planet","radius":1,"gravityField":"crushing"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o CelestialObject
			err := json.Unmarshal([]byte(tt.input), &o)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", o.GravityField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if o.GravityField != tt.want {
				t.Errorf("gravityField = %v, want %v", o.GravityField, tt.want)
			}
		})
	}
}
