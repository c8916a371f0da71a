package physics

import (
	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// MinBodyRadius keeps bounding boxes non-degenerate.
const MinBodyRadius = 0.001

// BodyDesc describes a body to spawn.
type BodyDesc struct {
	ID       string // optional; a UUID is assigned when empty
	Kind     BodyKind
	Position vector.Vector3D
	Velocity vector.Vector3D
	Rotation mgl64.Quat
	Radius   float64
	Mass     float64
	Group    CollisionGroup // defaults to Kind.DefaultGroup()
}

// Body is a dynamic ball owned by a Sim.
// Bodies are not safe for concurrent use; the owner of the Sim serializes
// access.
type Body struct {
	id       string
	kind     BodyKind
	position vector.Vector3D
	velocity vector.Vector3D
	rotation mgl64.Quat
	radius   float64
	mass     float64
	group    CollisionGroup
	sleeping bool
	sim      *Sim
}

// ID returns the body's stable id.
func (b *Body) ID() string { return b.id }

// Kind returns the body kind.
func (b *Body) Kind() BodyKind { return b.kind }

// Translation returns the current position.
func (b *Body) Translation() vector.Vector3D { return b.position }

// Velocity returns the current linear velocity.
func (b *Body) Velocity() vector.Vector3D { return b.velocity }

// Rotation returns the orientation.
func (b *Body) Rotation() mgl64.Quat { return b.rotation }

// Radius returns the collision radius.
func (b *Body) Radius() float64 { return b.radius }

// Mass returns the body mass.
func (b *Body) Mass() float64 { return b.mass }

// Group returns the collision group.
func (b *Body) Group() CollisionGroup { return b.group }

// Sleeping reports whether the body is excluded from integration.
func (b *Body) Sleeping() bool { return b.sleeping }

// SetTranslation teleports the body.
func (b *Body) SetTranslation(p vector.Vector3D) {
	b.position = p
	b.sleeping = false
	if b.sim != nil {
		b.sim.dirty = true
	}
}

// SetVelocity replaces the linear velocity and wakes the body.
func (b *Body) SetVelocity(v vector.Vector3D) {
	b.velocity = v
	b.sleeping = false
}

// SetRotation replaces the orientation.
func (b *Body) SetRotation(q mgl64.Quat) {
	b.rotation = q
}

// ApplyImpulse adds impulse/mass to the velocity.
func (b *Body) ApplyImpulse(impulse vector.Vector3D, wake bool) {
	if !impulse.IsFinite() {
		return
	}
	b.velocity = b.velocity.Add(impulse.Scale(1 / b.mass))
	if wake {
		b.sleeping = false
	}
}

// Bounds implements rtreego.Spatial.
func (b *Body) Bounds() rtreego.Rect {
	return ballRect(b.position, b.radius)
}

func ballRect(center vector.Vector3D, radius float64) rtreego.Rect {
	r, err := rtreego.NewRect(
		rtreego.Point{center.X - radius, center.Y - radius, center.Z - radius},
		[]float64{2 * radius, 2 * radius, 2 * radius},
	)
	if err != nil {
		// Only reachable for non-positive radius, which Spawn prevents.
		r, _ = rtreego.NewRect(rtreego.Point{center.X, center.Y, center.Z}, []float64{MinBodyRadius, MinBodyRadius, MinBodyRadius})
	}
	return r
}
