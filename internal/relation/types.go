// Package relation tracks agent-to-agent bonds and player/faction
// reputation. Relations are first-class records keyed by an ordered
// id-pair rather than cyclic pointers between agents (spec.md Design
// Notes: "Cyclic references between agents and relations").
//
// Grounded on the teacher's internal/engine/relationships.go bond
// model (sentiment/trust pairs, strengthen/decay), generalized from
// the teacher's phi-numerology deltas to the spec's trust/familiarity
// model and half-life decay rule.
package relation

import "time"

// Pair is an ordered pair of agent ids used as a map key for a
// symmetric quantity (familiarity). Trust is directed and stored
// separately per direction.
type Pair struct {
	A, B uint64
}

// OrderedPair returns a canonical Pair for two agent ids regardless of
// call order, so familiarity lookups are order-independent.
func OrderedPair(a, b uint64) Pair {
	if a <= b {
		return Pair{A: a, B: b}
	}
	return Pair{A: b, B: a}
}

// Relation is the bond one agent has toward another. Trust is directed
// (trust of A toward B need not equal trust of B toward A); familiarity
// is a property of the pair and is shared.
type Relation struct {
	AgentA            uint64    `json:"agent_a"`
	AgentB            uint64    `json:"agent_b"`
	Trust             float64   `json:"trust"`       // [-1, 1], directed A -> B
	Familiarity       float64   `json:"familiarity"` // [0, 1], symmetric
	LastInteractionAt time.Time `json:"last_interaction_at"`
	Pinned            bool      `json:"pinned"` // event-pinned: skip half-life drift
}

// HalfLifeHours is the simulated-time half-life used by relation score
// drift toward neutral (spec.md §5: "half-life of 48 simulated hours").
const HalfLifeHours = 48.0

func clampTrust(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
