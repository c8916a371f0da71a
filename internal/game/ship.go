package game

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/physics"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/spatial"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// Flight model constants. Acceleration and rotation are applied per tick.
const (
	ShipMaxSpeed      = 50.0
	ShipAcceleration  = 0.2
	ShipRotationSpeed = 0.05
	ShipMaxPitch      = math.Pi / 3
	ShipMaxRoll       = math.Pi / 3
	ShipRadius        = 10.0
	ShipMass          = 1.0
	MaxShipNameLength = 32
)

// shipForward is the nose direction of an unrotated ship.
var shipForward = vector.New(0, 0, -1)

// Controls is the pilot input, each axis in [-1, 1].
type Controls struct {
	Throttle float64 `json:"throttle" msgpack:"throttle"`
	Pitch    float64 `json:"pitch" msgpack:"pitch"`
	Roll     float64 `json:"roll" msgpack:"roll"`
	Yaw      float64 `json:"yaw" msgpack:"yaw"`
}

// Clamp returns c with every axis limited to [-1, 1] and NaN zeroed.
func (c Controls) Clamp() Controls {
	return Controls{
		Throttle: clampAxis(c.Throttle),
		Pitch:    clampAxis(c.Pitch),
		Roll:     clampAxis(c.Roll),
		Yaw:      clampAxis(c.Yaw),
	}
}

func clampAxis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return mgl64.Clamp(v, -1, 1)
}

// Ship is a piloted spacecraft backed by a physics body.
type Ship struct {
	ID       string
	Name     string
	Speed    float64
	Euler    mgl64.Vec3 // x pitch, y yaw, z roll
	Controls Controls
	JoinedAt time.Time

	Sector   spatial.SectorID
	Exposure []environment.HazardID

	body *physics.Body
}

func newShip(name string, body *physics.Body) *Ship {
	return &Ship{
		ID:       body.ID(),
		Name:     name,
		JoinedAt: time.Now(),
		body:     body,
	}
}

// Position returns the body position.
func (s *Ship) Position() vector.Vector3D {
	return s.body.Translation()
}

// Orientation returns the ship rotation built from its Euler angles.
func (s *Ship) Orientation() mgl64.Quat {
	return mgl64.AnglesToQuat(s.Euler[0], s.Euler[1], s.Euler[2], mgl64.XYZ)
}

// Forward returns the unit nose direction.
func (s *Ship) Forward() vector.Vector3D {
	return shipForward.Rotate(s.Orientation())
}

// Fly applies the current controls for one tick of dt seconds: throttle
// changes speed, the stick changes attitude, and thrust along the nose is
// added to the body velocity.
func (s *Ship) Fly(dt float64) {
	c := s.Controls

	s.Speed = mgl64.Clamp(s.Speed+c.Throttle*ShipAcceleration, 0, ShipMaxSpeed)

	s.Euler[0] = mgl64.Clamp(s.Euler[0]-c.Pitch*ShipRotationSpeed, -ShipMaxPitch, ShipMaxPitch)
	s.Euler[1] = math.Remainder(s.Euler[1]+c.Yaw*ShipRotationSpeed, 2*math.Pi)
	s.Euler[2] = mgl64.Clamp(s.Euler[2]+c.Roll*ShipRotationSpeed, -ShipMaxRoll, ShipMaxRoll)

	q := s.Orientation()
	s.body.SetRotation(q)

	if s.Speed == 0 || dt <= 0 {
		return
	}
	thrust := shipForward.Rotate(q).Scale(s.Speed * dt)
	s.body.SetVelocity(s.body.Velocity().Add(thrust))
}

// ShipSnapshot is an immutable copy of ship state.
type ShipSnapshot struct {
	ID       string                 `json:"id" msgpack:"id"`
	Name     string                 `json:"name" msgpack:"name"`
	Position vector.Vector3D        `json:"position" msgpack:"position"`
	Velocity vector.Vector3D        `json:"velocity" msgpack:"velocity"`
	Rotation [4]float64             `json:"rotation" msgpack:"rotation"` // w, x, y, z
	Speed    float64                `json:"speed" msgpack:"speed"`
	Controls Controls               `json:"controls" msgpack:"controls"`
	Sector   spatial.SectorID       `json:"sector" msgpack:"sector"`
	Exposure []environment.HazardID `json:"exposure" msgpack:"exposure"`
	Outside  bool                   `json:"outside" msgpack:"outside"`
}

// Snapshot copies the ship. boundary is used to flag ships beyond the edge.
func (s *Ship) Snapshot(boundary float64) ShipSnapshot {
	q := s.body.Rotation()
	pos := s.body.Translation()
	return ShipSnapshot{
		ID:       s.ID,
		Name:     s.Name,
		Position: pos,
		Velocity: s.body.Velocity(),
		Rotation: [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		Speed:    s.Speed,
		Controls: s.Controls,
		Sector:   s.Sector,
		Exposure: append(make([]environment.HazardID, 0, len(s.Exposure)), s.Exposure...),
		Outside:  pos.Length() > boundary,
	}
}
