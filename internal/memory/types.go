// Package memory implements the memory lifecycle: insert, decay,
// reinforce, query, and gossip-share. See design doc section 4.4.
package memory

import (
	"time"

	"golang.org/x/exp/slices"

	"github.com/talgya/npcforge/internal/agent"
)

// Category tags the subject matter of a memory.
type Category string

const (
	CategoryFamily     Category = "family"
	CategoryGoal       Category = "goal"
	CategoryFear       Category = "fear"
	CategoryEvent      Category = "event"
	CategorySecret     Category = "secret"
	CategoryPreference Category = "preference"
	CategoryOrigin     Category = "origin"
	CategoryProfession Category = "profession"
	CategoryCrime      Category = "crime"
)

// SubjectKind distinguishes a player subject from an agent subject.
type SubjectKind uint8

const (
	SubjectPlayer SubjectKind = iota
	SubjectAgent
)

// Subject identifies who/what a memory is about.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
}

// Memory is a single recollection owned by one agent.
type Memory struct {
	ID              string      `json:"id"`
	OwnerAgent      agent.ID    `json:"owner_agent"`
	Subject         Subject     `json:"subject"`
	Category        Category    `json:"category"`
	Content         string      `json:"content"`
	Strength        float64     `json:"strength"`         // 0..1
	EmotionalWeight float64     `json:"emotional_weight"` // 0..1
	CreatedAt       time.Time   `json:"created_at"`
	LastReferencedAt time.Time  `json:"last_referenced_at"`
	RefCount        int         `json:"ref_count"`

	// Secondhand provenance. Zero value means firsthand.
	Source *agent.ID `json:"source,omitempty"`
}

// ForgottenThreshold is the strength below which a memory is hidden from
// retrieval (spec.md §3, §4.4).
const ForgottenThreshold = 0.05

// DeletionThreshold is the strength below which a memory is scheduled
// for deletion on the next cleanup sweep (spec.md §4.4).
const DeletionThreshold = 0.01

// IsForgotten reports whether m must be excluded from retrieval
// (testable property 4).
func (m Memory) IsForgotten() bool {
	return m.Strength < ForgottenThreshold
}

// IsFirsthand reports whether this memory was directly experienced
// rather than received via gossip.
func (m Memory) IsFirsthand() bool {
	return m.Source == nil
}

// Rumor propagates information about a player or agent across the
// agent population via Gossip (spec.md §3).
type Rumor struct {
	ID        string             `json:"id"`
	About     Subject            `json:"about"`
	Content   string             `json:"content"`
	CreatedBy agent.ID           `json:"created_by"`
	Strength  float64            `json:"strength"`
	SpreadSet map[agent.ID]bool  `json:"spread_set"`
}

// retrievalScore implements the ordering rule from spec.md §4.4:
// strength * (1 + 0.5*emotionalWeight), descending.
func retrievalScore(m Memory) float64 {
	return m.Strength * (1 + 0.5*m.EmotionalWeight)
}

// sortByRetrievalScore sorts memories by descending retrieval score,
// via golang.org/x/exp/slices.SortFunc rather than sort.Slice.
func sortByRetrievalScore(mems []Memory) {
	slices.SortFunc(mems, func(a, b Memory) int {
		sa, sb := retrievalScore(a), retrievalScore(b)
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return 0
		}
	})
}
