// Package physics is the in-process rigid body world the environment runs
// against: dynamic ball bodies, static sensor colliders, impulse application
// and an R-tree broad phase for overlap queries.
//
// The environment package only sees the World and RigidBody interfaces; Sim is
// the concrete implementation used by the engine.
package physics

import (
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// CollisionGroup is a bitmask of interaction groups.
type CollisionGroup uint32

const (
	GroupSpacecraft CollisionGroup = 0x01
	GroupProjectile CollisionGroup = 0x02
	GroupAsteroid   CollisionGroup = 0x04
	GroupEffect     CollisionGroup = 0x08
	GroupBoundary   CollisionGroup = 0x10
	GroupCelestial  CollisionGroup = 0x20

	// GroupDynamic covers every group that moves under integration.
	GroupDynamic = GroupSpacecraft | GroupProjectile | GroupAsteroid | GroupEffect
)

// Matches reports whether g shares a bit with mask. A zero mask matches all.
func (g CollisionGroup) Matches(mask CollisionGroup) bool {
	return mask == 0 || g&mask != 0
}

// BodyKind classifies a body.
type BodyKind string

const (
	KindSpacecraft BodyKind = "spacecraft"
	KindProjectile BodyKind = "projectile"
	KindAsteroid   BodyKind = "asteroid"
	KindEffect     BodyKind = "effect"
	KindCelestial  BodyKind = "celestial"
)

// DefaultGroup returns the collision group a body of kind k joins.
func (k BodyKind) DefaultGroup() CollisionGroup {
	switch k {
	case KindSpacecraft:
		return GroupSpacecraft
	case KindProjectile:
		return GroupProjectile
	case KindAsteroid:
		return GroupAsteroid
	case KindEffect:
		return GroupEffect
	case KindCelestial:
		return GroupCelestial
	}
	return GroupEffect
}

// RigidBody is the view of a body handed to intersection consumers.
type RigidBody interface {
	ID() string
	Translation() vector.Vector3D
	// ApplyImpulse changes velocity by impulse/mass. wake also resumes a
	// sleeping body.
	ApplyImpulse(impulse vector.Vector3D, wake bool)
}

// ColliderHandle identifies a static collider created on a World.
type ColliderHandle int

// InvalidCollider is returned for rejected collider descriptions.
const InvalidCollider ColliderHandle = -1

// ColliderDesc describes a static ball collider.
type ColliderDesc struct {
	Center vector.Vector3D
	Radius float64
	// Sensor colliders report overlaps but have no collision response.
	Sensor bool
	// Group is the collider's own membership.
	Group CollisionGroup
	// Filter selects which body groups the collider reports; zero means all.
	Filter CollisionGroup
}

// World is the physics collaborator consumed by the environment.
type World interface {
	CreateCollider(desc ColliderDesc) ColliderHandle
	// IntersectionsWith returns the bodies currently overlapping the
	// collider, ordered by id. The result is only valid until the next
	// mutation of the world.
	IntersectionsWith(handle ColliderHandle) []RigidBody
}
