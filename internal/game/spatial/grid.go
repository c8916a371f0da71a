// Package spatial provides the coarse spatial index of the universe: a fixed
// set of sector reference points laid out on a sphere around the origin.
//
// The grid is a static lookup table. Positions are computed once at
// construction and never change; only the per-sector membership lists are
// mutable, and only the environment manager writes them. Membership lists hold
// stable string ids (hazard, celestial and body ids), not the entries.
package spatial

import (
	"fmt"
	"math"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

const (
	// SectorCount is the fixed number of sectors in a grid.
	SectorCount = 64
	// SectorRings is the number of latitude bands (and longitude columns).
	SectorRings = 8
	// DefaultSectorRadius is the distance of every sector from the origin.
	DefaultSectorRadius = 25000.0
)

// SectorID identifies a sector. Ids have the form "sector-{index}".
type SectorID string

// Sector is one reference point of the grid plus the ids of everything
// currently attached to it.
type Sector struct {
	ID               SectorID        `json:"id" msgpack:"id"`
	Index            int             `json:"index" msgpack:"index"`
	Position         vector.Vector3D `json:"position" msgpack:"position"`
	Size             float64         `json:"size" msgpack:"size"`
	Hazards          []string        `json:"hazards" msgpack:"hazards"`
	CelestialObjects []string        `json:"celestialObjects" msgpack:"celestialObjects"`
	ActiveObjects    []string        `json:"activeObjects" msgpack:"activeObjects"`
}

func (s *Sector) clone() Sector {
	c := *s
	c.Hazards = append(make([]string, 0, len(s.Hazards)), s.Hazards...)
	c.CelestialObjects = append(make([]string, 0, len(s.CelestialObjects)), s.CelestialObjects...)
	c.ActiveObjects = append(make([]string, 0, len(s.ActiveObjects)), s.ActiveObjects...)
	return c
}

// SectorGrid holds the sectors in index order.
// The zero value is an empty grid on which every query reports no result.
type SectorGrid struct {
	sectors []Sector
	byID    map[SectorID]int
}

// NewSectorGrid builds the 8×8 latitude/longitude layout at the given radius.
//
// For index i: phi = acos(-1 + 2*(i mod 8)/8), theta = 2π*floor(i/8)/8.
// Every i with i mod 8 == 0 maps to the south pole, so those sectors share a
// position up to rounding.
func NewSectorGrid(radius float64) *SectorGrid {
	g := &SectorGrid{
		sectors: make([]Sector, SectorCount),
		byID:    make(map[SectorID]int, SectorCount),
	}

	for i := 0; i < SectorCount; i++ {
		phi := math.Acos(-1 + 2*float64(i%SectorRings)/SectorRings)
		theta := 2 * math.Pi * float64(i/SectorRings) / SectorRings

		id := SectorID(fmt.Sprintf("sector-%d", i))
		g.sectors[i] = Sector{
			ID:       id,
			Index:    i,
			Position: vector.FromSpherical(radius, phi, theta),
			Size:     radius,
		}
		g.byID[id] = i
	}

	return g
}

// Len returns the number of sectors.
func (g *SectorGrid) Len() int {
	return len(g.sectors)
}

// Sectors returns copies of all sectors ordered by index.
func (g *SectorGrid) Sectors() []Sector {
	out := make([]Sector, len(g.sectors))
	for i := range g.sectors {
		out[i] = g.sectors[i].clone()
	}
	return out
}

// Get returns a copy of the sector with the given id.
func (g *SectorGrid) Get(id SectorID) (Sector, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Sector{}, false
	}
	return g.sectors[i].clone(), true
}

// NearestIndex returns the index of the sector closest to p.
// Linear scan in index order with a strict comparison: on equal distance the
// lowest index wins.
func (g *SectorGrid) NearestIndex(p vector.Vector3D) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i := range g.sectors {
		d := g.sectors[i].Position.Sub(p).LengthSq()
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	// NaN input never compares less; fall back to the first sector.
	if best < 0 && len(g.sectors) > 0 {
		best = 0
	}
	return best, best >= 0
}

// Nearest returns a copy of the sector closest to p, or false when the grid
// is empty.
func (g *SectorGrid) Nearest(p vector.Vector3D) (Sector, bool) {
	i, ok := g.NearestIndex(p)
	if !ok {
		return Sector{}, false
	}
	return g.sectors[i].clone(), true
}

// AttachHazard records hazardID on the sector nearest to p and returns that
// sector's id.
func (g *SectorGrid) AttachHazard(p vector.Vector3D, hazardID string) (SectorID, bool) {
	i, ok := g.NearestIndex(p)
	if !ok {
		return "", false
	}
	g.sectors[i].Hazards = append(g.sectors[i].Hazards, hazardID)
	return g.sectors[i].ID, true
}

// DetachHazard removes hazardID from whichever sector holds it.
func (g *SectorGrid) DetachHazard(hazardID string) bool {
	for i := range g.sectors {
		if list, ok := removeID(g.sectors[i].Hazards, hazardID); ok {
			g.sectors[i].Hazards = list
			return true
		}
	}
	return false
}

// AttachCelestial records celestialID on the sector nearest to p.
func (g *SectorGrid) AttachCelestial(p vector.Vector3D, celestialID string) (SectorID, bool) {
	i, ok := g.NearestIndex(p)
	if !ok {
		return "", false
	}
	g.sectors[i].CelestialObjects = append(g.sectors[i].CelestialObjects, celestialID)
	return g.sectors[i].ID, true
}

// DetachCelestial removes celestialID from whichever sector holds it.
func (g *SectorGrid) DetachCelestial(celestialID string) bool {
	for i := range g.sectors {
		if list, ok := removeID(g.sectors[i].CelestialObjects, celestialID); ok {
			g.sectors[i].CelestialObjects = list
			return true
		}
	}
	return false
}

// ResetActive clears every sector's active object list, keeping capacity.
func (g *SectorGrid) ResetActive() {
	for i := range g.sectors {
		g.sectors[i].ActiveObjects = g.sectors[i].ActiveObjects[:0]
	}
}

// AddActive records objectID on the sector nearest to p.
func (g *SectorGrid) AddActive(p vector.Vector3D, objectID string) (SectorID, bool) {
	i, ok := g.NearestIndex(p)
	if !ok {
		return "", false
	}
	g.sectors[i].ActiveObjects = append(g.sectors[i].ActiveObjects, objectID)
	return g.sectors[i].ID, true
}

// removeID deletes the first occurrence of id in place, preserving order.
func removeID(list []string, id string) ([]string, bool) {
	for i, v := range list {
		if v == id {
			copy(list[i:], list[i+1:])
			return list[:len(list)-1], true
		}
	}
	return list, false
}

// Stats returns occupancy statistics for debugging and metrics.
func (g *SectorGrid) Stats() GridStats {
	stats := GridStats{Sectors: len(g.sectors)}
	for i := range g.sectors {
		s := &g.sectors[i]
		n := len(s.ActiveObjects)
		stats.ActiveObjects += n
		stats.Hazards += len(s.Hazards)
		stats.Celestials += len(s.CelestialObjects)
		if n > 0 {
			stats.Occupied++
		}
		if n > stats.MaxOccupancy {
			stats.MaxOccupancy = n
		}
	}
	return stats
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	Sectors       int `json:"sectors"`
	Occupied      int `json:"occupied"`
	MaxOccupancy  int `json:"maxOccupancy"`
	ActiveObjects int `json:"activeObjects"`
	Hazards       int `json:"hazards"`
	Celestials    int `json:"celestials"`
}
