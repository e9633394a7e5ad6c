// Package faction implements FactionEngine: inter-faction relations,
// territorial control, trade route execution, and battle resolution.
//
// Grounded on the teacher's internal/engine/factions.go (faction
// relation map, weekly drift, tension events) and internal/social
// (faction/settlement records), generalized from the teacher's five
// hardcoded "Crossworlds" factions into a spec-driven data model, and
// internal/economy/goods.go for the trade route profit/risk shape.
package faction

import "sync"

// ID identifies a faction.
type ID uint64

// RelationEntry is one faction's view of another: a score and a label
// derived from score thresholds (spec.md §3).
type RelationEntry struct {
	Score float64 `json:"score"` // [-1, 1]
	Label string  `json:"label"`
}

// Label thresholds for RelationEntry.Label, evaluated high to low.
const (
	labelAllied    = 0.5
	labelFriendly  = 0.15
	labelNeutral   = -0.15
	labelTense     = -0.5
	// below labelTense: hostile
)

// LabelFor derives the relation label from a score per the thresholds
// above.
func LabelFor(score float64) string {
	switch {
	case score >= labelAllied:
		return "allied"
	case score >= labelFriendly:
		return "friendly"
	case score >= labelNeutral:
		return "neutral"
	case score >= labelTense:
		return "tense"
	default:
		return "hostile"
	}
}

// Faction is an inter-agent political entity with values, resources,
// and relations to other factions.
type Faction struct {
	mu        sync.RWMutex
	ID        ID                     `json:"id"`
	Name      string                 `json:"name"`
	Values    []string               `json:"values"`
	Resources float64                `json:"resources"`
	Relations map[ID]*RelationEntry  `json:"relations"`
}

// NewFaction creates a faction with neutral relations to start.
func NewFaction(id ID, name string, values []string) *Faction {
	return &Faction{
		ID:        id,
		Name:      name,
		Values:    values,
		Relations: make(map[ID]*RelationEntry),
	}
}

// RelationWith returns the current relation to another faction,
// defaulting to neutral (score 0) if unset.
func (f *Faction) RelationWith(other ID) RelationEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if r, ok := f.Relations[other]; ok {
		return *r
	}
	return RelationEntry{Score: 0, Label: LabelFor(0)}
}

// AdjustRelation mutates the score toward other by delta, clamped to
// [-1,1], and recomputes the label.
func (f *Faction) AdjustRelation(other ID, delta float64) RelationEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Relations[other]
	if !ok {
		r = &RelationEntry{}
		f.Relations[other] = r
	}
	r.Score = clamp(r.Score+delta, -1, 1)
	r.Label = LabelFor(r.Score)
	return *r
}

// SetRelation sets an absolute score (used for seeding initial
// relations, mirroring the teacher's setRelation helper).
func (f *Faction) SetRelation(other ID, score float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Relations[other] = &RelationEntry{Score: clamp(score, -1, 1), Label: LabelFor(clamp(score, -1, 1))}
}

// AdjustResources credits (or debits) this faction's resource pool by
// delta, used for trade-route profit accrual (spec.md §4.11).
func (f *Faction) AdjustResources(delta float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Resources += delta
	return f.Resources
}

// Enemies returns every faction this one considers hostile (label
// "hostile"), satisfying internal/relation.EnemyLookup.
func (f *Faction) Enemies() []ID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []ID
	for id, r := range f.Relations {
		if r.Label == "hostile" {
			out = append(out, id)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
