// Package vector provides the 3D point and distance math shared by the
// environment, physics and engine packages.
//
// Vector3D is a plain value type with JSON tags so it can travel through the
// API unchanged. Orientation math (quaternions, Euler angles) is delegated to
// mgl64; use Mgl and FromMgl to cross over.
package vector

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3D is a point or direction in universe space.
type Vector3D struct {
	X float64 `json:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" yaml:"y" msgpack:"y"`
	Z float64 `json:"z" yaml:"z" msgpack:"z"`
}

// New returns the vector (x, y, z).
func New(x, y, z float64) Vector3D {
	return Vector3D{X: x, Y: y, Z: z}
}

// Zero returns the origin.
func Zero() Vector3D {
	return Vector3D{}
}

// Add returns a + b.
func (a Vector3D) Add(b Vector3D) Vector3D {
	return Vector3D{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a - b.
func (a Vector3D) Sub(b Vector3D) Vector3D {
	return Vector3D{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns a * s.
func (a Vector3D) Scale(s float64) Vector3D {
	return Vector3D{a.X * s, a.Y * s, a.Z * s}
}

// Dot returns the dot product a · b.
func (a Vector3D) Dot(b Vector3D) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// LengthSq returns the squared magnitude.
func (a Vector3D) LengthSq() float64 {
	return a.X*a.X + a.Y*a.Y + a.Z*a.Z
}

// Length returns the Euclidean magnitude.
func (a Vector3D) Length() float64 {
	return math.Sqrt(a.LengthSq())
}

// Distance returns the Euclidean distance between a and b.
func (a Vector3D) Distance(b Vector3D) float64 {
	return a.Sub(b).Length()
}

// Normalize returns the unit vector in the direction of a.
// The zero vector is returned unchanged.
func (a Vector3D) Normalize() Vector3D {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Limit caps the magnitude of a at max.
func (a Vector3D) Limit(max float64) Vector3D {
	if a.LengthSq() > max*max {
		return a.Normalize().Scale(max)
	}
	return a
}

// IsZero reports whether every component is exactly zero.
func (a Vector3D) IsZero() bool {
	return a.X == 0 && a.Y == 0 && a.Z == 0
}

// IsFinite reports whether no component is NaN or infinite.
func (a Vector3D) IsFinite() bool {
	return isFinite(a.X) && isFinite(a.Y) && isFinite(a.Z)
}

// Mgl converts to an mgl64 vector.
func (a Vector3D) Mgl() mgl64.Vec3 {
	return mgl64.Vec3{a.X, a.Y, a.Z}
}

// FromMgl converts from an mgl64 vector.
func FromMgl(v mgl64.Vec3) Vector3D {
	return Vector3D{v[0], v[1], v[2]}
}

// Rotate applies the rotation q to a.
func (a Vector3D) Rotate(q mgl64.Quat) Vector3D {
	return FromMgl(q.Rotate(a.Mgl()))
}

// FromSpherical converts spherical coordinates (polar angle phi measured from
// +Z, azimuth theta in the XY plane) at the given radius to Cartesian.
func FromSpherical(radius, phi, theta float64) Vector3D {
	return Vector3D{
		X: radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Sin(phi) * math.Sin(theta),
		Z: radius * math.Cos(phi),
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
