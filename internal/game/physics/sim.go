package physics

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"
	uuid "github.com/satori/go.uuid"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// Config tunes the simulation.
type Config struct {
	// R-tree node fan-out.
	MinChildren int
	MaxChildren int
	// LinearDamping is the fraction of velocity removed per second.
	LinearDamping float64
	// MaxSpeed caps body speed after each step; zero disables the cap.
	MaxSpeed float64
	// SleepSpeed puts bodies slower than this to sleep; zero disables sleeping.
	SleepSpeed float64
}

// DefaultConfig returns the default simulation tuning.
func DefaultConfig() Config {
	return Config{
		MinChildren:   4,
		MaxChildren:   16,
		LinearDamping: 1.0,
		MaxSpeed:      500,
		SleepSpeed:    0.001,
	}
}

type collider struct {
	desc ColliderDesc
	rect rtreego.Rect
}

// Sim is a minimal rigid body world: ball bodies integrated with explicit
// Euler, static ball colliders, and a 3D R-tree broad phase rebuilt on every
// step.
type Sim struct {
	cfg       Config
	bodies    map[string]*Body
	ids       []string // sorted
	colliders []collider
	tree      *rtreego.Rtree
	dirty     bool
	scratch   []rtreego.Spatial
}

// NewSim creates an empty world.
func NewSim(cfg Config) *Sim {
	if cfg.MinChildren < 1 {
		cfg.MinChildren = 1
	}
	if cfg.MaxChildren <= cfg.MinChildren {
		cfg.MaxChildren = cfg.MinChildren * 2
	}
	return &Sim{
		cfg:    cfg,
		bodies: make(map[string]*Body),
		tree:   rtreego.NewTree(3, cfg.MinChildren, cfg.MaxChildren),
	}
}

// Spawn adds a body and returns it.
func (s *Sim) Spawn(desc BodyDesc) *Body {
	id := desc.ID
	if id == "" {
		id = uuid.NewV4().String()
	}
	if old, ok := s.bodies[id]; ok {
		old.sim = nil
		s.removeID(id)
	}

	radius := desc.Radius
	if radius < MinBodyRadius {
		radius = MinBodyRadius
	}
	mass := desc.Mass
	if mass <= 0 {
		mass = 1
	}
	rot := desc.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	group := desc.Group
	if group == 0 {
		group = desc.Kind.DefaultGroup()
	}

	b := &Body{
		id:       id,
		kind:     desc.Kind,
		position: desc.Position,
		velocity: desc.Velocity,
		rotation: rot,
		radius:   radius,
		mass:     mass,
		group:    group,
		sim:      s,
	}
	s.bodies[id] = b
	i := sort.SearchStrings(s.ids, id)
	s.ids = append(s.ids, "")
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
	s.dirty = true
	return b
}

// Remove deletes a body. It reports whether the body existed.
func (s *Sim) Remove(id string) bool {
	b, ok := s.bodies[id]
	if !ok {
		return false
	}
	b.sim = nil
	delete(s.bodies, id)
	s.removeID(id)
	s.dirty = true
	return true
}

func (s *Sim) removeID(id string) {
	i := sort.SearchStrings(s.ids, id)
	if i < len(s.ids) && s.ids[i] == id {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
	}
}

// Body looks up a body by id.
func (s *Sim) Body(id string) (*Body, bool) {
	b, ok := s.bodies[id]
	return b, ok
}

// Bodies returns all bodies ordered by id.
func (s *Sim) Bodies() []*Body {
	out := make([]*Body, len(s.ids))
	for i, id := range s.ids {
		out[i] = s.bodies[id]
	}
	return out
}

// Len returns the number of bodies.
func (s *Sim) Len() int {
	return len(s.ids)
}

// Step integrates every awake body over dt seconds and rebuilds the broad
// phase.
func (s *Sim) Step(dt float64) {
	if dt > 0 {
		damp := 1 - s.cfg.LinearDamping*dt
		if damp < 0 {
			damp = 0
		}
		for _, id := range s.ids {
			b := s.bodies[id]
			if b.sleeping {
				continue
			}
			b.position = b.position.Add(b.velocity.Scale(dt))
			b.velocity = b.velocity.Scale(damp)
			if s.cfg.MaxSpeed > 0 {
				b.velocity = b.velocity.Limit(s.cfg.MaxSpeed)
			}
			if s.cfg.SleepSpeed > 0 && b.velocity.LengthSq() < s.cfg.SleepSpeed*s.cfg.SleepSpeed {
				b.velocity = vector.Zero()
				b.sleeping = true
			}
		}
	}
	s.rebuild()
}

// rebuild bulk-loads the R-tree from current body bounds. Bodies with
// non-finite positions are left out of the tree.
func (s *Sim) rebuild() {
	s.scratch = s.scratch[:0]
	for _, id := range s.ids {
		b := s.bodies[id]
		if !b.position.IsFinite() {
			continue
		}
		s.scratch = append(s.scratch, b)
	}
	s.tree = rtreego.NewTree(3, s.cfg.MinChildren, s.cfg.MaxChildren, s.scratch...)
	s.dirty = false
}

// CreateCollider registers a static ball collider.
func (s *Sim) CreateCollider(desc ColliderDesc) ColliderHandle {
	if desc.Radius <= 0 || !desc.Center.IsFinite() {
		return InvalidCollider
	}
	s.colliders = append(s.colliders, collider{
		desc: desc,
		rect: ballRect(desc.Center, desc.Radius),
	})
	return ColliderHandle(len(s.colliders) - 1)
}

// Collider returns the description of a collider.
func (s *Sim) Collider(h ColliderHandle) (ColliderDesc, bool) {
	if h < 0 || int(h) >= len(s.colliders) {
		return ColliderDesc{}, false
	}
	return s.colliders[h].desc, true
}

// IntersectionsWith returns the bodies whose ball overlaps the collider and
// whose group passes the collider's filter, ordered by id.
func (s *Sim) IntersectionsWith(h ColliderHandle) []RigidBody {
	if h < 0 || int(h) >= len(s.colliders) {
		return nil
	}
	if s.dirty {
		s.rebuild()
	}

	c := s.colliders[h]
	candidates := s.tree.SearchIntersect(c.rect)

	hits := make([]*Body, 0, len(candidates))
	for _, sp := range candidates {
		b := sp.(*Body)
		if !b.group.Matches(c.desc.Filter) {
			continue
		}
		reach := c.desc.Radius + b.radius
		if b.position.Sub(c.desc.Center).LengthSq() > reach*reach {
			continue
		}
		hits = append(hits, b)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].id < hits[j].id })

	out := make([]RigidBody, len(hits))
	for i, b := range hits {
		out[i] = b
	}
	return out
}

var _ World = (*Sim)(nil)
