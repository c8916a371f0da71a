package game

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/physics"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/spatial"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// EngineConfig holds engine construction parameters.
type EngineConfig struct {
	TickRate    int
	Environment environment.Config
	Physics     physics.Config
	Limits      ResourceLimits
	// SpawnRadius bounds the random spawn position of new ships.
	SpawnRadius float64
	// Seed drives spawn placement; zero seeds from the clock.
	Seed int64
}

// DefaultEngineConfig returns the stock engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:    60,
		Environment: environment.DefaultConfig(),
		Physics:     physics.DefaultConfig(),
		Limits:      DefaultLimits,
		SpawnRadius: 5000,
	}
}

// TickStats summarizes one tick for metrics.
type TickStats struct {
	Tick            uint64
	Duration        time.Duration
	Paused          bool
	Ships           int
	Bodies          int
	Hazards         int
	Celestials      int
	Expired         int
	Pushes          int
	ShipsOutside    int
	OccupiedSectors int
}

// Engine is the main game engine: it owns the physics world, the
// environment and the session, and drives them from a fixed-rate ticker.
type Engine struct {
	mu sync.RWMutex

	sim     *physics.Sim
	env     *environment.Manager
	ships   map[string]*Ship
	session Session

	// Reused each tick to avoid allocation
	occupants []environment.Occupant
	shipOrder []*Ship

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	tickCount uint64
	limits    ResourceLimits

	spawnRadius float64
	rng         *rand.Rand

	// Snapshot system for lock-free readers
	snapshotPool *SnapshotPool

	eventLog *EventLog

	// OnTick is called after every tick, outside the engine lock.
	OnTick func(TickStats)
}

// NewEngine creates a new game engine
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.Limits == (ResourceLimits{}) {
		cfg.Limits = DefaultLimits
	}
	if cfg.SpawnRadius < 0 {
		cfg.SpawnRadius = 0
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sim := physics.NewSim(cfg.Physics)

	e := &Engine{
		sim:          sim,
		env:          environment.NewManager(sim, cfg.Environment),
		ships:        make(map[string]*Ship),
		session:      newSession(),
		occupants:    make([]environment.Occupant, 0, cfg.Limits.MaxShips),
		shipOrder:    make([]*Ship, 0, cfg.Limits.MaxShips),
		tickRate:     cfg.TickRate,
		stopChan:     make(chan struct{}),
		limits:       cfg.Limits,
		spawnRadius:  cfg.SpawnRadius,
		rng:          rand.New(rand.NewSource(seed)),
		snapshotPool: NewSnapshotPool(cfg.Limits),
		eventLog:     NewEventLog(),
	}
	e.produceSnapshot()
	return e
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	ticker := e.ticker
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Game engine started at %d TPS", e.tickRate)
}

// Stop stops the game loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Game engine stopped")
}

// TickRate returns the configured ticks per second.
func (e *Engine) TickRate() int {
	return e.tickRate
}

// tick is called at tickRate times per second
func (e *Engine) tick() {
	e.Advance(1.0 / float64(e.tickRate))
}

// Advance runs one simulation step of dt seconds. The ticker calls it with a
// fixed dt; tests and tools may call it directly.
func (e *Engine) Advance(dt float64) TickStats {
	start := time.Now()

	e.mu.Lock()
	stats := e.step(dt)
	e.mu.Unlock()

	stats.Duration = time.Since(start)
	if e.OnTick != nil {
		e.OnTick(stats)
	}
	return stats
}

// step advances the world. Order: pilot controls, physics integration,
// environment update (boundary sees integrated positions), sector
// occupancy, session, events, snapshot.
func (e *Engine) step(dt float64) TickStats {
	e.tickCount++

	if e.session.paused {
		e.produceSnapshot()
		return TickStats{
			Tick:       e.tickCount,
			Paused:     true,
			Ships:      len(e.ships),
			Bodies:     e.sim.Len(),
			Hazards:    e.env.Stats().Hazards,
			Celestials: e.env.Stats().Celestials,
		}
	}

	ships := e.orderedShips()
	for _, s := range ships {
		s.Fly(dt)
	}

	e.sim.Step(dt)
	result := e.env.Update(dt)

	e.occupants = e.occupants[:0]
	for _, b := range e.sim.Bodies() {
		e.occupants = append(e.occupants, environment.Occupant{ID: b.ID(), Position: b.Translation()})
	}
	e.env.Occupy(e.occupants)

	outside := 0
	radius := e.env.Boundary().Radius
	for _, s := range ships {
		pos := s.Position()
		if sector, ok := e.env.GetActiveSector(pos); ok {
			s.Sector = sector.ID
		}
		s.Exposure = s.Exposure[:0]
		for _, h := range e.env.HazardsAt(pos) {
			s.Exposure = append(s.Exposure, h.ID)
		}
		if pos.Length() > radius {
			outside++
		}
	}

	if primary, ok := e.ships[e.session.primaryShipID]; ok {
		e.session.playerPosition = primary.Position()
	}

	envStats := e.env.Stats()

	e.eventLog.EmitSimple(EventTypeTick, e.tickCount, "", TickPayload{
		Ships:       len(e.ships),
		Hazards:     envStats.Hazards,
		DeltaTimeNs: int64(result.DT * 1e9),
	})
	for _, h := range result.Expired {
		e.eventLog.EmitSimple(EventTypeHazardExpired, e.tickCount, "", HazardPayload{
			HazardID: string(h.ID),
			Type:     string(h.Type),
			Position: h.Position,
		})
	}
	for _, p := range result.Pushes {
		e.eventLog.EmitSimple(EventTypeBoundaryPush, e.tickCount, p.BodyID, PushPayload{
			BodyID:   p.BodyID,
			Distance: p.Distance,
			Impulse:  p.Impulse,
		})
	}

	e.produceSnapshot()

	return TickStats{
		Tick:            e.tickCount,
		Ships:           len(e.ships),
		Bodies:          e.sim.Len(),
		Hazards:         envStats.Hazards,
		Celestials:      envStats.Celestials,
		Expired:         len(result.Expired),
		Pushes:          len(result.Pushes),
		ShipsOutside:    outside,
		OccupiedSectors: envStats.Grid.Occupied,
	}
}

// orderedShips returns ships sorted by id in a reused slice.
func (e *Engine) orderedShips() []*Ship {
	e.shipOrder = e.shipOrder[:0]
	for _, s := range e.ships {
		e.shipOrder = append(e.shipOrder, s)
	}
	sort.Slice(e.shipOrder, func(i, j int) bool { return e.shipOrder[i].ID < e.shipOrder[j].ID })
	return e.shipOrder
}

// AddShip spawns a ship for name. Adding a name that is already flying
// returns the existing ship.
func (e *Engine) AddShip(name string) (ShipSnapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxShipNameLength {
		return ShipSnapshot{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	radius := e.env.Boundary().Radius

	for _, s := range e.ships {
		if s.Name == name {
			return s.Snapshot(radius), nil
		}
	}

	// HARD CAP: Prevent DoS via ship flooding
	if len(e.ships) >= e.limits.MaxShips {
		log.Printf("⚠️ Ship limit reached (%d), rejecting: %s", e.limits.MaxShips, name)
		return ShipSnapshot{}, fmt.Errorf("%w (%d)", ErrShipLimit, e.limits.MaxShips)
	}

	body := e.sim.Spawn(physics.BodyDesc{
		Kind:     physics.KindSpacecraft,
		Position: e.spawnPoint(),
		Radius:   ShipRadius,
		Mass:     ShipMass,
	})
	ship := newShip(name, body)
	e.ships[ship.ID] = ship

	if e.session.primaryShipID == "" {
		e.session.primaryShipID = ship.ID
		e.session.playerPosition = ship.Position()
	}

	e.eventLog.EmitSimple(EventTypeShipJoin, e.tickCount, ship.ID, ShipPayload{
		ShipID:   ship.ID,
		Name:     ship.Name,
		Position: ship.Position(),
	})

	log.Printf("🚀 Ship joined: %s (%s)", name, ship.ID)
	return ship.Snapshot(radius), nil
}

// spawnPoint picks a uniformly distributed point inside the spawn sphere.
func (e *Engine) spawnPoint() vector.Vector3D {
	if e.spawnRadius == 0 {
		return vector.Zero()
	}
	r := e.spawnRadius * math.Cbrt(e.rng.Float64())
	phi := math.Acos(2*e.rng.Float64() - 1)
	theta := 2 * math.Pi * e.rng.Float64()
	return vector.FromSpherical(r, phi, theta)
}

// RemoveShip removes a ship and its body.
func (e *Engine) RemoveShip(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ship, ok := e.ships[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShipNotFound, id)
	}
	delete(e.ships, id)
	e.sim.Remove(id)

	if e.session.primaryShipID == id {
		e.session.primaryShipID = ""
		for _, s := range e.orderedShips() {
			e.session.primaryShipID = s.ID
			e.session.playerPosition = s.Position()
			break
		}
	}

	e.eventLog.EmitSimple(EventTypeShipLeave, e.tickCount, id, ShipPayload{
		ShipID:   id,
		Name:     ship.Name,
		Position: ship.Position(),
	})
	log.Printf("👋 Ship left: %s", ship.Name)
	return nil
}

// SetControls replaces a ship's pilot input. Axes are clamped to [-1, 1].
func (e *Engine) SetControls(id string, c Controls) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ship, ok := e.ships[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShipNotFound, id)
	}
	ship.Controls = c.Clamp()
	return nil
}

// Ship returns a copy of one ship.
func (e *Engine) Ship(id string) (ShipSnapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ship, ok := e.ships[id]
	if !ok {
		return ShipSnapshot{}, false
	}
	return ship.Snapshot(e.env.Boundary().Radius), true
}

// Ships returns copies of all ships ordered by id.
func (e *Engine) Ships() []ShipSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	radius := e.env.Boundary().Radius
	out := make([]ShipSnapshot, 0, len(e.ships))
	for _, s := range e.ships {
		out = append(out, s.Snapshot(radius))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddHazard validates and registers a hazard.
func (e *Engine) AddHazard(h environment.Hazard) (environment.HazardID, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.env.Stats().Hazards >= e.limits.MaxHazards {
		return "", fmt.Errorf("%w (%d)", ErrHazardLimit, e.limits.MaxHazards)
	}

	id := e.env.AddHazard(h)
	var sector spatial.SectorID
	if s, ok := e.env.GetActiveSector(h.Position); ok {
		sector = s.ID
	}
	e.eventLog.EmitSimple(EventTypeHazardAdded, e.tickCount, "", HazardPayload{
		HazardID: string(id),
		Type:     string(h.Type),
		Position: h.Position,
		Sector:   string(sector),
	})
	return id, nil
}

// RemoveHazard deletes a hazard by id.
func (e *Engine) RemoveHazard(id environment.HazardID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.env.RemoveHazard(id) {
		return fmt.Errorf("%w: %s", ErrHazardNotFound, id)
	}
	e.eventLog.EmitSimple(EventTypeHazardRemoved, e.tickCount, "", HazardPayload{HazardID: string(id)})
	return nil
}

// AddCelestialObject validates and registers a celestial object.
func (e *Engine) AddCelestialObject(o environment.CelestialObject) (environment.CelestialID, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.env.Stats().Celestials >= e.limits.MaxCelestials {
		return "", fmt.Errorf("%w (%d)", ErrCelestialLimit, e.limits.MaxCelestials)
	}

	id := e.env.AddCelestialObject(o)
	e.eventLog.EmitSimple(EventTypeCelestialAdded, e.tickCount, "", CelestialPayload{
		CelestialID: string(id),
		Type:        string(o.Type),
		Position:    o.Position,
	})
	return id, nil
}

// ActiveSector returns the sector nearest to p.
func (e *Engine) ActiveSector(p vector.Vector3D) (spatial.Sector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.env.GetActiveSector(p)
}

// Environment returns a read view of the environment.
func (e *Engine) Environment() environment.Environment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.env.GetEnvironment()
}

// Sectors returns all sectors ordered by index.
func (e *Engine) Sectors() []spatial.Sector {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.env.Sectors()
}

// Hazards returns all active hazards.
func (e *Engine) Hazards() []environment.Hazard {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.env.Hazards()
}

// CelestialObjects returns all celestial objects.
func (e *Engine) CelestialObjects() []environment.CelestialObject {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.env.CelestialObjects()
}

// SetPaused pauses or resumes the simulation.
func (e *Engine) SetPaused(paused bool) SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.paused != paused {
		e.session.paused = paused
		e.eventLog.EmitSimple(EventTypePause, e.tickCount, "", PausePayload{Paused: paused})
		log.Printf("⏸️ Session paused=%v", paused)
	}
	return e.session.state(len(e.ships))
}

// AddScore adds delta to the session score.
func (e *Engine) AddScore(delta int64) SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.score += delta
	e.eventLog.EmitSimple(EventTypeScore, e.tickCount, "", ScorePayload{Delta: delta, Score: e.session.score})
	return e.session.state(len(e.ships))
}

// Session returns a copy of the session state.
func (e *Engine) Session() SessionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.state(len(e.ships))
}

// GetSnapshot returns the latest immutable snapshot for lock-free rendering
func (e *Engine) GetSnapshot() *Snapshot {
	return e.snapshotPool.AcquireRead()
}

// produceSnapshot copies the current state into the next pool slot.
// Called with the engine lock held.
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount
	snap.Session = e.session.state(len(e.ships))
	snap.Boundary = e.env.Boundary()

	radius := snap.Boundary.Radius
	for _, s := range e.orderedShips() {
		if len(snap.Ships) >= e.limits.MaxSnapshotShips {
			break
		}
		snap.Ships = append(snap.Ships, s.Snapshot(radius))
	}
	snap.ShipCount = len(e.ships)

	snap.Hazards = append(snap.Hazards, e.env.Hazards()...)
	snap.Celestials = append(snap.Celestials, e.env.CelestialObjects()...)

	stats := e.env.Stats()
	snap.Grid = stats.Grid
	for _, sector := range e.env.Sectors() {
		if len(sector.ActiveObjects) > 0 {
			snap.Occupied = append(snap.Occupied, sector.ID)
		}
	}

	e.snapshotPool.PublishWrite()
}

// StartEventLog initializes the event logging system
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// EventLogStats returns event log statistics for monitoring
func (e *Engine) EventLogStats() EventLogStats {
	return e.eventLog.Stats()
}

// Limits returns the current resource limits
func (e *Engine) Limits() ResourceLimits {
	return e.limits
}
