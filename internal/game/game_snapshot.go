package game

import (
	"sync/atomic"
	"time"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/spatial"
)

// ResourceLimits defines hard caps on everything a client can create.
type ResourceLimits struct {
	MaxShips         int // Hard cap on piloted ships
	MaxHazards       int // Hard cap on active hazards
	MaxCelestials    int // Hard cap on celestial objects
	MaxSnapshotShips int // Ships copied into each snapshot
}

// DefaultLimits provides production-safe default limits
var DefaultLimits = ResourceLimits{
	MaxShips:         200,
	MaxHazards:       500,
	MaxCelestials:    200,
	MaxSnapshotShips: 200,
}

// Snapshot is an immutable view of one tick for readers that must not take
// the engine lock (WebSocket feed, map renderer).
type Snapshot struct {
	Sequence   uint64    `json:"sequence" msgpack:"sequence"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	TickNumber uint64    `json:"tick" msgpack:"tick"`

	Session    SessionState                  `json:"session" msgpack:"session"`
	Boundary   environment.UniverseBoundary  `json:"boundary" msgpack:"boundary"`
	Ships      []ShipSnapshot                `json:"ships" msgpack:"ships"`
	Hazards    []environment.Hazard          `json:"hazards" msgpack:"hazards"`
	Celestials []environment.CelestialObject `json:"celestials" msgpack:"celestials"`
	Grid       spatial.GridStats             `json:"grid" msgpack:"grid"`
	Occupied   []spatial.SectorID            `json:"occupiedSectors" msgpack:"occupiedSectors"`

	ShipCount int `json:"shipCount" msgpack:"shipCount"`
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure
// Uses triple buffering for lock-free producer/consumer
type SnapshotPool struct {
	snapshots [3]Snapshot
	limits    ResourceLimits
	writeIdx  atomic.Uint32
	readIdx   atomic.Uint32
	sequence  atomic.Uint64
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(limits ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	for i := range pool.snapshots {
		pool.snapshots[i] = Snapshot{
			Ships:      make([]ShipSnapshot, 0, limits.MaxSnapshotShips),
			Hazards:    make([]environment.Hazard, 0, 16),
			Celestials: make([]environment.CelestialObject, 0, 16),
			Occupied:   make([]spatial.SectorID, 0, spatial.SectorCount),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from game tick)
// Returns a snapshot with reset slices but preserved capacity
func (p *SnapshotPool) AcquireWrite() *Snapshot {
	idx := p.writeIdx.Add(1) % 3
	snap := &p.snapshots[idx]

	snap.Ships = snap.Ships[:0]
	snap.Hazards = snap.Hazards[:0]
	snap.Celestials = snap.Celestials[:0]
	snap.Occupied = snap.Occupied[:0]

	snap.Sequence = p.sequence.Add(1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks write complete and advances read pointer
func (p *SnapshotPool) PublishWrite() {
	p.readIdx.Store(p.writeIdx.Load())
}

// AcquireRead gets the latest complete snapshot (consumer only)
func (p *SnapshotPool) AcquireRead() *Snapshot {
	idx := p.readIdx.Load() % 3
	return &p.snapshots[idx]
}

// Limits returns the resource limits
func (p *SnapshotPool) Limits() ResourceLimits {
	return p.limits
}
