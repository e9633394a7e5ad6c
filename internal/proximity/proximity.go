// Package proximity answers "who is near entity X, within radius r,
// same zone?" via a per-zone 3D grid, updated on every location write
// (spec.md §4.9).
//
// No teacher file indexes spatial position (the teacher's world is a
// static hex map with agents attached to settlements, not free-roaming
// 3D positions); this package is grounded on the teacher's
// internal/world/hex.go neighbor-lookup shape (bucket entities by a
// coarse coordinate, enumerate only adjacent buckets), generalized
// from 2D hex axial coordinates to a 3D grid keyed by zone.
package proximity

import (
	"math"
	"sync"

	"github.com/talgya/npcforge/internal/agent"
)

// DefaultNearbyRadius is both the default query radius and the grid's
// cell edge length (spec.md §4.9: "cell edge ≈ the default nearby
// radius").
const DefaultNearbyRadius = 10.0

type cellKey struct {
	x, y, z int
}

func cellFor(loc agent.Location, cellEdge float64) cellKey {
	return cellKey{
		x: int(math.Floor(loc.X / cellEdge)),
		y: int(math.Floor(loc.Y / cellEdge)),
		z: int(math.Floor(loc.Z / cellEdge)),
	}
}

type entry struct {
	id  agent.ID
	loc agent.Location
}

// Index is a per-zone 3D grid of agent positions.
type Index struct {
	mu       sync.RWMutex
	cellEdge float64
	zones    map[string]map[cellKey][]entry
	byAgent  map[agent.ID]agent.Location // only agents with a reported location
}

// NewIndex creates an Index with the given cell edge (use
// DefaultNearbyRadius unless a deployment overrides it).
func NewIndex(cellEdge float64) *Index {
	if cellEdge <= 0 {
		cellEdge = DefaultNearbyRadius
	}
	return &Index{
		cellEdge: cellEdge,
		zones:    make(map[string]map[cellKey][]entry),
		byAgent:  make(map[agent.ID]agent.Location),
	}
}

// Update records or moves an agent's position. Called on every
// location write (spec.md §4.9).
func (idx *Index) Update(id agent.ID, loc agent.Location) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.byAgent[id]; ok {
		idx.removeLocked(id, old)
	}
	idx.byAgent[id] = loc

	zone, ok := idx.zones[loc.Zone]
	if !ok {
		zone = make(map[cellKey][]entry)
		idx.zones[loc.Zone] = zone
	}
	key := cellFor(loc, idx.cellEdge)
	zone[key] = append(zone[key], entry{id: id, loc: loc})
}

// Remove excludes an agent from nearby queries (spec.md §4.9: "agents
// with no reported location ... are excluded from nearby queries but
// otherwise fully functional").
func (idx *Index) Remove(id agent.ID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if loc, ok := idx.byAgent[id]; ok {
		idx.removeLocked(id, loc)
		delete(idx.byAgent, id)
	}
}

func (idx *Index) removeLocked(id agent.ID, loc agent.Location) {
	zone, ok := idx.zones[loc.Zone]
	if !ok {
		return
	}
	key := cellFor(loc, idx.cellEdge)
	bucket := zone[key]
	for i, e := range bucket {
		if e.id == id {
			zone[key] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
}

// Nearby returns every agent id within radius of loc in the same zone,
// excluding the querying id itself. Query cost is O(neighbors): only
// the 3x3x3 block of cells around loc's cell is scanned (spec.md
// §4.9: "query is O(neighbors)").
func (idx *Index) Nearby(loc agent.Location, radius float64, exclude agent.ID) []agent.ID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	zone, ok := idx.zones[loc.Zone]
	if !ok {
		return nil
	}
	center := cellFor(loc, idx.cellEdge)
	r2 := radius * radius

	var out []agent.ID
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				key := cellKey{x: center.x + dx, y: center.y + dy, z: center.z + dz}
				for _, e := range zone[key] {
					if e.id == exclude {
						continue
					}
					if sqDist(loc, e.loc) <= r2 {
						out = append(out, e.id)
					}
				}
			}
		}
	}
	return out
}

// HasPlayerNearby reports whether any position has been recorded in
// zone at all, used by internal/tiering's Nearby classification. A
// player's location is recorded through the same Update call as any
// agent; callers distinguish player ids via their own id-space
// convention.
func (idx *Index) HasPlayerNearby(zone string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	cells, ok := idx.zones[zone]
	if !ok {
		return false
	}
	for _, bucket := range cells {
		if len(bucket) > 0 {
			return true
		}
	}
	return false
}

func sqDist(a, b agent.Location) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}
