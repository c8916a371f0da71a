package api_test

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/spatial"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// MockEngine implements api.EngineInterface for testing
type MockEngine struct {
	mu         sync.Mutex
	grid       *spatial.SectorGrid
	hazards    []environment.Hazard
	celestials []environment.CelestialObject
	ships      map[string]game.ShipSnapshot
	session    game.SessionState
	limits     game.ResourceLimits
	seq        uint64
	nextID     int
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		grid:   spatial.NewSectorGrid(spatial.DefaultSectorRadius),
		ships:  make(map[string]game.ShipSnapshot),
		limits: game.ResourceLimits{MaxShips: 3, MaxHazards: 3, MaxCelestials: 3},
	}
}

func (m *MockEngine) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *MockEngine) GetSnapshot() *game.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	return &game.Snapshot{
		Sequence:   m.seq,
		Timestamp:  time.Now(),
		TickNumber: m.seq,
		Session:    m.session,
		Boundary:   environment.DefaultBoundary(),
		Ships:      m.sortedShips(),
		Hazards:    append([]environment.Hazard(nil), m.hazards...),
		Celestials: append([]environment.CelestialObject(nil), m.celestials...),
		Grid:       m.grid.Stats(),
		ShipCount:  len(m.ships),
	}
}

func (m *MockEngine) Environment() environment.Environment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return environment.Environment{
		Boundary:         environment.DefaultBoundary(),
		Sectors:          m.grid.Sectors(),
		Hazards:          append([]environment.Hazard(nil), m.hazards...),
		CelestialObjects: append([]environment.CelestialObject(nil), m.celestials...),
	}
}

func (m *MockEngine) Sectors() []spatial.Sector {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grid.Sectors()
}

func (m *MockEngine) ActiveSector(p vector.Vector3D) (spatial.Sector, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grid.Nearest(p)
}

func (m *MockEngine) Hazards() []environment.Hazard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]environment.Hazard(nil), m.hazards...)
}

func (m *MockEngine) CelestialObjects() []environment.CelestialObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]environment.CelestialObject(nil), m.celestials...)
}

func (m *MockEngine) AddHazard(h environment.Hazard) (environment.HazardID, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.hazards) >= m.limits.MaxHazards {
		return "", game.ErrHazardLimit
	}
	h.ID = environment.HazardID(m.id("hazard"))
	m.hazards = append(m.hazards, h)
	return h.ID, nil
}

func (m *MockEngine) RemoveHazard(id environment.HazardID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, h := range m.hazards {
		if h.ID == id {
			m.hazards = append(m.hazards[:i], m.hazards[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", game.ErrHazardNotFound, id)
}

func (m *MockEngine) AddCelestialObject(o environment.CelestialObject) (environment.CelestialID, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.celestials) >= m.limits.MaxCelestials {
		return "", game.ErrCelestialLimit
	}
	o.ID = environment.CelestialID(m.id("celestial"))
	m.celestials = append(m.celestials, o)
	return o.ID, nil
}

func (m *MockEngine) sortedShips() []game.ShipSnapshot {
	out := make([]game.ShipSnapshot, 0, len(m.ships))
	for _, s := range m.ships {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockEngine) Ships() []game.ShipSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedShips()
}

func (m *MockEngine) Ship(id string) (game.ShipSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.ships[id]
	return s, ok
}

func (m *MockEngine) AddShip(name string) (game.ShipSnapshot, error) {
	if name == "" {
		return game.ShipSnapshot{}, game.ErrInvalidName
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Simulate ship limit
	if len(m.ships) >= m.limits.MaxShips {
		return game.ShipSnapshot{}, game.ErrShipLimit
	}
	s := game.ShipSnapshot{ID: m.id("ship"), Name: name, Position: vector.New(1000, 0, 0)}
	m.ships[s.ID] = s
	return s, nil
}

func (m *MockEngine) RemoveShip(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ships[id]; !ok {
		return game.ErrShipNotFound
	}
	delete(m.ships, id)
	return nil
}

func (m *MockEngine) SetControls(id string, c game.Controls) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.ships[id]
	if !ok {
		return game.ErrShipNotFound
	}
	s.Controls = c.Clamp()
	m.ships[id] = s
	return nil
}

func (m *MockEngine) Session() game.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *MockEngine) SetPaused(paused bool) game.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Paused = paused
	return m.session
}

func (m *MockEngine) AddScore(delta int64) game.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Score += delta
	return m.session
}

func (m *MockEngine) EventLogStats() game.EventLogStats {
	return game.EventLogStats{}
}

func (m *MockEngine) Limits() game.ResourceLimits {
	return m.limits
}
