package environment

import (
	"fmt"
	"math"

	uuid "github.com/satori/go.uuid"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// HazardType is the kind of environmental effect.
type HazardType string

const (
	HazardRadiation     HazardType = "radiation"
	HazardAsteroidField HazardType = "asteroidField"
	HazardSolarFlare    HazardType = "solarFlare"
)

// Valid reports whether t is a known hazard type.
func (t HazardType) Valid() bool {
	switch t {
	case HazardRadiation, HazardAsteroidField, HazardSolarFlare:
		return true
	}
	return false
}

// HazardID identifies a registered hazard.
type HazardID string

// Hazard is a spherical region with an intensity. A nil Duration makes the
// hazard permanent; otherwise Duration is the remaining lifetime in seconds.
type Hazard struct {
	ID        HazardID        `json:"id" yaml:"id,omitempty" msgpack:"id"`
	Type      HazardType      `json:"type" yaml:"type" msgpack:"type"`
	Position  vector.Vector3D `json:"position" yaml:"position" msgpack:"position"`
	Radius    float64         `json:"radius" yaml:"radius" msgpack:"radius"`
	Intensity float64         `json:"intensity" yaml:"intensity" msgpack:"intensity"`
	Duration  *float64        `json:"duration,omitempty" yaml:"duration,omitempty" msgpack:"duration,omitempty"`
}

// Permanent reports whether the hazard has no duration.
func (h Hazard) Permanent() bool {
	return h.Duration == nil
}

// Contains reports whether p lies inside the hazard sphere.
func (h Hazard) Contains(p vector.Vector3D) bool {
	return h.Position.Sub(p).LengthSq() <= h.Radius*h.Radius
}

// Validate checks the fields a registered hazard must satisfy.
func (h Hazard) Validate() error {
	if !h.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidHazard, h.Type)
	}
	if !h.Position.IsFinite() {
		return fmt.Errorf("%w: non-finite position", ErrInvalidHazard)
	}
	if !(h.Radius > 0) || math.IsInf(h.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidHazard)
	}
	if math.IsNaN(h.Intensity) || math.IsInf(h.Intensity, 0) {
		return fmt.Errorf("%w: non-finite intensity", ErrInvalidHazard)
	}
	if h.Duration != nil && (!(*h.Duration > 0) || math.IsInf(*h.Duration, 0)) {
		return fmt.Errorf("%w: duration must be positive when set", ErrInvalidHazard)
	}
	return nil
}

func (h Hazard) clone() Hazard {
	if h.Duration != nil {
		d := *h.Duration
		h.Duration = &d
	}
	return h
}

// Seconds returns a duration pointer for use in Hazard literals.
func Seconds(s float64) *float64 {
	return &s
}

// HazardRegistry holds active hazards in insertion order.
type HazardRegistry struct {
	hazards []Hazard
}

// NewHazardRegistry creates an empty registry.
func NewHazardRegistry() *HazardRegistry {
	return &HazardRegistry{hazards: make([]Hazard, 0, 16)}
}

// Add appends h and returns its id, generating one when h.ID is empty.
// There is no deduplication.
func (r *HazardRegistry) Add(h Hazard) HazardID {
	if h.ID == "" {
		h.ID = HazardID(uuid.NewV4().String())
	}
	r.hazards = append(r.hazards, h.clone())
	return h.ID
}

// Tick subtracts dt from every timed hazard and drops those whose remaining
// duration reached zero or below. Survivors keep their relative order.
// The expired hazards are returned.
func (r *HazardRegistry) Tick(dt float64) []Hazard {
	var expired []Hazard
	n := 0
	for i := range r.hazards {
		h := r.hazards[i]
		if h.Duration != nil {
			*h.Duration -= dt
			if *h.Duration <= 0 {
				expired = append(expired, h)
				continue
			}
		}
		r.hazards[n] = h
		n++
	}
	// Clear the tail so dropped duration pointers can be collected.
	for i := n; i < len(r.hazards); i++ {
		r.hazards[i] = Hazard{}
	}
	r.hazards = r.hazards[:n]
	return expired
}

// Remove deletes the first hazard with the given id.
func (r *HazardRegistry) Remove(id HazardID) (Hazard, bool) {
	for i := range r.hazards {
		if r.hazards[i].ID == id {
			h := r.hazards[i]
			copy(r.hazards[i:], r.hazards[i+1:])
			r.hazards[len(r.hazards)-1] = Hazard{}
			r.hazards = r.hazards[:len(r.hazards)-1]
			return h, true
		}
	}
	return Hazard{}, false
}

// Get returns a copy of the hazard with the given id.
func (r *HazardRegistry) Get(id HazardID) (Hazard, bool) {
	for i := range r.hazards {
		if r.hazards[i].ID == id {
			return r.hazards[i].clone(), true
		}
	}
	return Hazard{}, false
}

// List returns copies of all hazards in order.
func (r *HazardRegistry) List() []Hazard {
	out := make([]Hazard, len(r.hazards))
	for i := range r.hazards {
		out[i] = r.hazards[i].clone()
	}
	return out
}

// Len returns the number of active hazards.
func (r *HazardRegistry) Len() int {
	return len(r.hazards)
}

// At returns copies of the hazards whose sphere contains p.
func (r *HazardRegistry) At(p vector.Vector3D) []Hazard {
	var out []Hazard
	for i := range r.hazards {
		if r.hazards[i].Contains(p) {
			out = append(out, r.hazards[i].clone())
		}
	}
	return out
}
