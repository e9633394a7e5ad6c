// Package conversation implements GroupOrchestrator: multi-agent
// conversation lifecycle, salience-ranked turn selection, and ordered
// per-speaker effect application (spec.md §4.10).
//
// No teacher file models multi-party NPC dialogue (the teacher's LLM
// calls are always one agent deciding alone); this package is
// grounded on the general request/response shape of
// internal/llm/cognition.go (build context, call, parse array
// response) generalized from a single-agent decision array into an
// ordered multi-speaker turn list, and on internal/engine/tick.go's
// idle-timeout-style bookkeeping for group auto-expiry.
package conversation

import (
	"sync"
	"time"

	"github.com/talgya/npcforge/internal/agent"
)

// ResponseType enumerates how a speaker's turn relates to the
// conversation so far (spec.md §4.10 step 2).
type ResponseType string

const (
	ResponseDirectReply   ResponseType = "direct_reply"
	ResponseAgreement     ResponseType = "agreement"
	ResponseDisagreement  ResponseType = "disagreement"
	ResponseElaboration   ResponseType = "elaboration"
	ResponseInterruption  ResponseType = "interruption"
	ResponseRedirect      ResponseType = "redirect"
	ResponseSilent        ResponseType = "silent"
)

// Turn is one speaker's contribution within a single message exchange.
type Turn struct {
	Speaker      agent.ID     `json:"speaker"`
	ResponseType ResponseType `json:"response_type"`
	AddressedTo  string       `json:"addressed_to,omitempty"`
	Dialogue     string       `json:"dialogue"`
}

// GroupIdleTimeout is the default auto-expiry window for a quiet group
// (spec.md §4.10).
const GroupIdleTimeout = 10 * time.Minute

// Group is a live multi-agent conversation.
type Group struct {
	ID           string
	PlayerID     string
	Location     agent.Location
	Participants []agent.ID
	Tension      float64 // [0,1]
	LastActiveAt time.Time
	Ended        bool

	lastSpokeTick map[agent.ID]int
	tick          int
}

func newGroup(id, playerID string, loc agent.Location, participants []agent.ID, now time.Time) *Group {
	return &Group{
		ID:            id,
		PlayerID:      playerID,
		Location:      loc,
		Participants:  participants,
		LastActiveAt:  now,
		lastSpokeTick: make(map[agent.ID]int),
	}
}

func (g *Group) hasParticipant(id agent.ID) bool {
	for _, p := range g.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Registry owns every live Group (spec.md §3 Ownership:
// "GroupOrchestrator owns conversation groups").
type Registry struct {
	mu     sync.Mutex
	groups map[string]*Group
}

func newRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}
