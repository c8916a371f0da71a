package environment

import (
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/physics"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// UniverseBoundary is the spherical edge of the play volume, centered at the
// origin. DamageRate is carried for clients but never applied.
type UniverseBoundary struct {
	Radius     float64 `json:"radius" yaml:"radius" msgpack:"radius"`
	DamageRate float64 `json:"damageRate" yaml:"damageRate" msgpack:"damageRate"`
	PushForce  float64 `json:"pushForce" yaml:"pushForce" msgpack:"pushForce"`
}

// DefaultBoundary returns the stock universe edge.
func DefaultBoundary() UniverseBoundary {
	return UniverseBoundary{
		Radius:     100000,
		DamageRate: 10,
		PushForce:  50,
	}
}

// BoundaryImpulse returns the inward impulse for a body at pos. No impulse is
// produced inside the boundary, at the exact origin, or for a non-finite
// position.
func BoundaryImpulse(pos vector.Vector3D, b UniverseBoundary) (vector.Vector3D, bool) {
	if !pos.IsFinite() {
		return vector.Vector3D{}, false
	}
	d := pos.Length()
	if d == 0 || d <= b.Radius {
		return vector.Vector3D{}, false
	}
	return pos.Scale(-b.PushForce / d), true
}

// Push records one boundary correction.
type Push struct {
	BodyID   string          `json:"bodyId"`
	Position vector.Vector3D `json:"position"`
	Distance float64         `json:"distance"`
	Impulse  vector.Vector3D `json:"impulse"`
}

// BoundaryEnforcer nudges bodies reported by the boundary sensor back toward
// the origin. It never clamps positions, so a fast body may stay outside for
// several ticks. A body whose collider no longer overlaps the sensor at all
// (farther than radius plus its own radius) is never reported and so is never
// pushed back.
type BoundaryEnforcer struct {
	world    physics.World
	boundary UniverseBoundary
	sensor   physics.ColliderHandle
}

// NewBoundaryEnforcer creates the boundary sensor on world.
func NewBoundaryEnforcer(world physics.World, boundary UniverseBoundary) *BoundaryEnforcer {
	sensor := world.CreateCollider(physics.ColliderDesc{
		Center: vector.Zero(),
		Radius: boundary.Radius,
		Sensor: true,
		Group:  physics.GroupBoundary,
		Filter: physics.GroupDynamic,
	})
	return &BoundaryEnforcer{
		world:    world,
		boundary: boundary,
		sensor:   sensor,
	}
}

// Sensor returns the handle of the boundary collider.
func (e *BoundaryEnforcer) Sensor() physics.ColliderHandle {
	return e.sensor
}

// Enforce applies the inward impulse to every sensed body beyond the radius
// and returns what it applied.
func (e *BoundaryEnforcer) Enforce() []Push {
	if e.sensor == physics.InvalidCollider {
		return nil
	}
	var pushes []Push
	for _, body := range e.world.IntersectionsWith(e.sensor) {
		pos := body.Translation()
		impulse, ok := BoundaryImpulse(pos, e.boundary)
		if !ok {
			continue
		}
		body.ApplyImpulse(impulse, true)
		pushes = append(pushes, Push{
			BodyID:   body.ID(),
			Position: pos,
			Distance: pos.Length(),
			Impulse:  impulse,
		})
	}
	return pushes
}
