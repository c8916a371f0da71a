// Package environment manages the space arena's surroundings: the sector
// grid, hazards, celestial bodies and the universe boundary.
//
// A Manager is single-writer and not safe for concurrent use. The engine
// calls Update once per tick after stepping physics, so boundary enforcement
// always sees this tick's positions.
package environment

import (
	"errors"
	"math"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/physics"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/spatial"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

var (
	ErrInvalidHazard    = errors.New("invalid hazard")
	ErrInvalidCelestial = errors.New("invalid celestial object")
)

// Config holds environment construction parameters.
type Config struct {
	Boundary     UniverseBoundary
	SectorRadius float64
}

// DefaultConfig returns the stock environment configuration.
func DefaultConfig() Config {
	return Config{
		Boundary:     DefaultBoundary(),
		SectorRadius: spatial.DefaultSectorRadius,
	}
}

// Environment is a deep-copied read view of the manager's state.
type Environment struct {
	Boundary         UniverseBoundary  `json:"boundary" msgpack:"boundary"`
	Sectors          []spatial.Sector  `json:"sectors" msgpack:"sectors"`
	Hazards          []Hazard          `json:"hazards" msgpack:"hazards"`
	CelestialObjects []CelestialObject `json:"celestialObjects" msgpack:"celestialObjects"`
}

// UpdateResult reports what one Update changed.
type UpdateResult struct {
	DT      float64
	Expired []Hazard
	Pushes  []Push
}

// Occupant is anything placed into sectors by Occupy.
type Occupant struct {
	ID       string
	Position vector.Vector3D
}

// Manager orchestrates the environment each tick.
type Manager struct {
	boundary   UniverseBoundary
	grid       *spatial.SectorGrid
	hazards    *HazardRegistry
	celestials *CelestialRegistry
	enforcer   *BoundaryEnforcer
}

// NewManager builds the sector grid and installs the boundary sensor on world.
func NewManager(world physics.World, cfg Config) *Manager {
	if cfg.SectorRadius <= 0 {
		cfg.SectorRadius = spatial.DefaultSectorRadius
	}
	return &Manager{
		boundary:   cfg.Boundary,
		grid:       spatial.NewSectorGrid(cfg.SectorRadius),
		hazards:    NewHazardRegistry(),
		celestials: NewCelestialRegistry(),
		enforcer:   NewBoundaryEnforcer(world, cfg.Boundary),
	}
}

// Update runs one environment tick: expire hazards, advance celestial
// rotation, then enforce the boundary. A negative or non-finite dt is treated
// as zero.
func (m *Manager) Update(dt float64) UpdateResult {
	dt = sanitizeDT(dt)

	expired := m.hazards.Tick(dt)
	for _, h := range expired {
		m.grid.DetachHazard(string(h.ID))
	}

	m.celestials.Tick(dt)

	return UpdateResult{
		DT:      dt,
		Expired: expired,
		Pushes:  m.enforcer.Enforce(),
	}
}

func sanitizeDT(dt float64) float64 {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return 0
	}
	return dt
}

// GetActiveSector returns the sector nearest to position.
func (m *Manager) GetActiveSector(position vector.Vector3D) (spatial.Sector, bool) {
	return m.grid.Nearest(position)
}

// AddHazard registers h and attaches it to its nearest sector.
func (m *Manager) AddHazard(h Hazard) HazardID {
	id := m.hazards.Add(h)
	m.grid.AttachHazard(h.Position, string(id))
	return id
}

// RemoveHazard deletes a hazard, permanent or timed.
func (m *Manager) RemoveHazard(id HazardID) bool {
	if _, ok := m.hazards.Remove(id); !ok {
		return false
	}
	m.grid.DetachHazard(string(id))
	return true
}

// AddCelestialObject registers o and attaches it to its nearest sector.
func (m *Manager) AddCelestialObject(o CelestialObject) CelestialID {
	id := m.celestials.Add(o)
	m.grid.AttachCelestial(o.Position, string(id))
	return id
}

// Occupy rebuilds every sector's active object list from occupants.
func (m *Manager) Occupy(occupants []Occupant) {
	m.grid.ResetActive()
	for _, o := range occupants {
		if !o.Position.IsFinite() {
			continue
		}
		m.grid.AddActive(o.Position, o.ID)
	}
}

// GetEnvironment returns a read view of the current state.
func (m *Manager) GetEnvironment() Environment {
	return Environment{
		Boundary:         m.boundary,
		Sectors:          m.grid.Sectors(),
		Hazards:          m.hazards.List(),
		CelestialObjects: m.celestials.List(),
	}
}

// Boundary returns the boundary configuration.
func (m *Manager) Boundary() UniverseBoundary {
	return m.boundary
}

// Sectors returns copies of all sectors ordered by index.
func (m *Manager) Sectors() []spatial.Sector {
	return m.grid.Sectors()
}

// Sector returns a copy of one sector.
func (m *Manager) Sector(id spatial.SectorID) (spatial.Sector, bool) {
	return m.grid.Get(id)
}

// Hazards returns copies of all active hazards.
func (m *Manager) Hazards() []Hazard {
	return m.hazards.List()
}

// HazardsAt returns the hazards whose sphere contains p.
func (m *Manager) HazardsAt(p vector.Vector3D) []Hazard {
	return m.hazards.At(p)
}

// CelestialObjects returns copies of all celestial objects.
func (m *Manager) CelestialObjects() []CelestialObject {
	return m.celestials.List()
}

// Stats is a summary for metrics.
type Stats struct {
	Hazards    int               `json:"hazards"`
	Celestials int               `json:"celestials"`
	Grid       spatial.GridStats `json:"grid"`
}

// Stats returns current counts.
func (m *Manager) Stats() Stats {
	return Stats{
		Hazards:    m.hazards.Len(),
		Celestials: m.celestials.Len(),
		Grid:       m.grid.Stats(),
	}
}
