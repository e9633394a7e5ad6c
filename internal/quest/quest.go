// Package quest implements spec.md §3's Quest record and the expiry
// sweep WorldClock runs each tick (spec.md §4.7 step 5). Quests may be
// generated from memories an agent holds about a player, so the
// generator takes a memory.Engine rather than raw strings.
//
// Grounded on the teacher's internal/agents/behavior.go goal-generation
// shape (picking a motivating memory and deriving a task from it),
// generalized from autonomous NPC goals into player-facing quests.
package quest

import (
	"fmt"
	"sync"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/memory"
)

// Status enumerates a Quest's lifecycle state (spec.md §3).
type Status string

const (
	StatusAvailable Status = "available"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Quest is a player-facing task, possibly generated from an agent's
// memories about that player (spec.md §3).
type Quest struct {
	ID          string    `json:"id"`
	GiverAgent  agent.ID  `json:"giver_agent"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Difficulty  float64   `json:"difficulty"` // 0..1
	ExpiresAt   time.Time `json:"expires_at"`
	Rewards     string    `json:"rewards"`
	Status      Status    `json:"status"`
	PlayerID    string    `json:"player_id"`
}

// Book tracks every live quest; WorldClock sweeps it each tick for
// expiry.
type Book struct {
	mu sync.Mutex
	q  map[string]*Quest
}

// NewBook creates an empty quest book.
func NewBook() *Book {
	return &Book{q: make(map[string]*Quest)}
}

// Generate derives a new available quest for playerID from the
// agent's strongest memory about them, if any (spec.md §3: "Quests may
// be generated from memories an agent holds about a player").
func Generate(book *Book, mem *memory.Engine, giver agent.ID, playerID string, now time.Time, ttl time.Duration) *Quest {
	subject := memory.Subject{Kind: memory.SubjectPlayer, ID: playerID}
	var seed string
	if mem != nil {
		top := mem.Retrieve(giver, subject, 1)
		if len(top) > 0 {
			seed = top[0].Content
		}
	}
	title := "A favor"
	desc := fmt.Sprintf("Something needs doing for %s.", playerID)
	if seed != "" {
		title = "Unfinished business"
		desc = fmt.Sprintf("Concerning: %s", seed)
	}

	q := &Quest{
		ID:          fmt.Sprintf("q-%d-%s-%d", giver, playerID, now.UnixNano()),
		GiverAgent:  giver,
		Type:        "favor",
		Title:       title,
		Description: desc,
		Difficulty:  0.3,
		ExpiresAt:   now.Add(ttl),
		Status:      StatusAvailable,
		PlayerID:    playerID,
	}
	book.mu.Lock()
	book.q[q.ID] = q
	book.mu.Unlock()
	return q
}

// Get returns a quest by id.
func (b *Book) Get(id string) (*Quest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.q[id]
	return q, ok
}

// Accept transitions an available quest to accepted.
func (b *Book) Accept(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.q[id]
	if !ok || q.Status != StatusAvailable {
		return false
	}
	q.Status = StatusAccepted
	return true
}

// OpenCount reports how many quests are available or accepted, for
// daily stats-history snapshots (spec.md §4.1 stats aggregates).
func (b *Book) OpenCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, q := range b.q {
		if q.Status == StatusAvailable || q.Status == StatusAccepted {
			n++
		}
	}
	return n
}

// Complete transitions an accepted quest to completed.
func (b *Book) Complete(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.q[id]
	if !ok || q.Status != StatusAccepted {
		return false
	}
	q.Status = StatusCompleted
	return true
}

// ExpirySweep transitions every available/accepted quest past its
// ExpiresAt into expired, returning how many changed (spec.md §4.7
// step 5).
func (b *Book) ExpirySweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, q := range b.q {
		if (q.Status == StatusAvailable || q.Status == StatusAccepted) && now.After(q.ExpiresAt) {
			q.Status = StatusExpired
			n++
		}
	}
	return n
}
