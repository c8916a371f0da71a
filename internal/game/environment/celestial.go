package environment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	uuid "github.com/satori/go.uuid"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// CelestialType is the kind of passive body.
type CelestialType string

const (
	CelestialStar     CelestialType = "star"
	CelestialPlanet   CelestialType = "planet"
	CelestialAsteroid CelestialType = "asteroid"
)

// Valid reports whether t is a known celestial type.
func (t CelestialType) Valid() bool {
	switch t {
	case CelestialStar, CelestialPlanet, CelestialAsteroid:
		return true
	}
	return false
}

// GravityField grades a body's gravity. It is descriptive only; no
// attraction is simulated.
type GravityField int

const (
	GravityNone GravityField = iota
	GravityWeak
	GravityMedium
	GravityStrong
)

var gravityNames = [...]string{"none", "weak", "medium", "strong"}

func (g GravityField) String() string {
	if g < GravityNone || g > GravityStrong {
		return "GravityField(" + strconv.Itoa(int(g)) + ")"
	}
	return gravityNames[g]
}

// Valid reports whether g is one of the defined levels.
func (g GravityField) Valid() bool {
	return g >= GravityNone && g <= GravityStrong
}

// MarshalText encodes the level by name.
func (g GravityField) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid gravity field %d", int(g))
	}
	return []byte(gravityNames[g]), nil
}

// UnmarshalText accepts a level name or its numeric value.
func (g *GravityField) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, name := range gravityNames {
		if s == name {
			*g = GravityField(i)
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !GravityField(n).Valid() {
		return fmt.Errorf("invalid gravity field %q", s)
	}
	*g = GravityField(n)
	return nil
}

// UnmarshalJSON accepts a quoted level name or a bare integer.
func (g *GravityField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	return g.UnmarshalText(b)
}

// CelestialID identifies a registered celestial object.
type CelestialID string

// CelestialObject is a passive body. Rotation is the accumulated spin angle
// about +Y in radians, kept in [0, 2π).
type CelestialObject struct {
	ID            CelestialID     `json:"id" yaml:"id,omitempty" msgpack:"id"`
	Type          CelestialType   `json:"type" yaml:"type" msgpack:"type"`
	Position      vector.Vector3D `json:"position" yaml:"position" msgpack:"position"`
	Radius        float64         `json:"radius" yaml:"radius" msgpack:"radius"`
	GravityField  GravityField    `json:"gravityField" yaml:"gravityField" msgpack:"gravityField"`
	RotationSpeed *float64        `json:"rotationSpeed,omitempty" yaml:"rotationSpeed,omitempty" msgpack:"rotationSpeed,omitempty"`
	Texture       string          `json:"texture,omitempty" yaml:"texture,omitempty" msgpack:"texture,omitempty"`
	Rotation      float64         `json:"rotation" yaml:"rotation,omitempty" msgpack:"rotation"`
}

// Orientation returns the spin as a quaternion about +Y.
func (o CelestialObject) Orientation() mgl64.Quat {
	return mgl64.QuatRotate(o.Rotation, mgl64.Vec3{0, 1, 0})
}

// Validate checks the fields a registered object must satisfy.
func (o CelestialObject) Validate() error {
	if !o.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCelestial, o.Type)
	}
	if !o.Position.IsFinite() {
		return fmt.Errorf("%w: non-finite position", ErrInvalidCelestial)
	}
	if !(o.Radius > 0) || math.IsInf(o.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidCelestial)
	}
	if !o.GravityField.Valid() {
		return fmt.Errorf("%w: gravity field %d", ErrInvalidCelestial, int(o.GravityField))
	}
	if o.RotationSpeed != nil && (math.IsNaN(*o.RotationSpeed) || math.IsInf(*o.RotationSpeed, 0)) {
		return fmt.Errorf("%w: non-finite rotation speed", ErrInvalidCelestial)
	}
	return nil
}

func (o CelestialObject) clone() CelestialObject {
	if o.RotationSpeed != nil {
		s := *o.RotationSpeed
		o.RotationSpeed = &s
	}
	return o
}

// RadiansPerSecond returns a rotation speed pointer for use in literals.
func RadiansPerSecond(s float64) *float64 {
	return &s
}

// CelestialRegistry holds celestial objects in insertion order.
type CelestialRegistry struct {
	objects []CelestialObject
}

// NewCelestialRegistry creates an empty registry.
func NewCelestialRegistry() *CelestialRegistry {
	return &CelestialRegistry{objects: make([]CelestialObject, 0, 16)}
}

// Add appends o and returns its id, generating one when o.ID is empty.
func (r *CelestialRegistry) Add(o CelestialObject) CelestialID {
	if o.ID == "" {
		o.ID = CelestialID(uuid.NewV4().String())
	}
	o.Rotation = wrapAngle(o.Rotation)
	r.objects = append(r.objects, o.clone())
	return o.ID
}

// Tick advances the rotation of every object with a rotation speed.
func (r *CelestialRegistry) Tick(dt float64) {
	for i := range r.objects {
		o := &r.objects[i]
		if o.RotationSpeed == nil {
			continue
		}
		o.Rotation = wrapAngle(o.Rotation + *o.RotationSpeed*dt)
	}
}

// Get returns a copy of the object with the given id.
func (r *CelestialRegistry) Get(id CelestialID) (CelestialObject, bool) {
	for i := range r.objects {
		if r.objects[i].ID == id {
			return r.objects[i].clone(), true
		}
	}
	return CelestialObject{}, false
}

// List returns copies of all objects in order.
func (r *CelestialRegistry) List() []CelestialObject {
	out := make([]CelestialObject, len(r.objects))
	for i := range r.objects {
		out[i] = r.objects[i].clone()
	}
	return out
}

// Len returns the number of objects.
func (r *CelestialRegistry) Len() int {
	return len(r.objects)
}

func wrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// -tiny + 2π rounds to exactly 2π.
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
