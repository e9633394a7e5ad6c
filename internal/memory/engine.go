package memory

import (
	"sync"
	"time"

	"github.com/talgya/npcforge/internal/agent"
)

// StrengthUpdate is one row of a bulk decay/reinforce write, matching
// spec.md §4.1's "bulk operations (one call per sweep, not one per
// memory)" guarantee.
type StrengthUpdate struct {
	ID       string
	Strength float64
}

// Store is the subset of internal/store's contract MemoryEngine needs
// (spec.md §4.1): insert, indexed query, and the two bulk mutations.
// Defined here (rather than imported from internal/store) so memory has
// no dependency on the persistence package — store depends on memory's
// types, not the other way around.
type Store interface {
	InsertMemory(m Memory) error
	QueryMemories(owner agent.ID, subject *Subject, minStrength float64, limit int) ([]Memory, error)
	BulkUpdateStrength(updates []StrengthUpdate) error
	DeleteBelow(threshold float64) error
}

// Engine owns the in-memory working set of memories and rumors,
// write-behind to Store. MemoryEngine is the sole owner of these
// records (spec.md §3 Ownership).
type Engine struct {
	mu      sync.RWMutex
	byOwner map[agent.ID][]*Memory
	byID    map[string]*Memory
	rumors  map[string]*Rumor

	store Store
}

// NewEngine creates a MemoryEngine backed by store.
func NewEngine(store Store) *Engine {
	return &Engine{
		byOwner: make(map[agent.ID][]*Memory),
		byID:    make(map[string]*Memory),
		rumors:  make(map[string]*Rumor),
		store:   store,
	}
}

// Insert adds a new firsthand memory with initial strength 1.0
// (spec.md §4.4).
func (e *Engine) Insert(id string, owner agent.ID, subject Subject, category Category, content string, emotionalWeight float64) *Memory {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	m := &Memory{
		ID:                id,
		OwnerAgent:        owner,
		Subject:           subject,
		Category:          category,
		Content:           content,
		Strength:          1.0,
		EmotionalWeight:   clamp01(emotionalWeight),
		CreatedAt:         now,
		LastReferencedAt:  now,
		RefCount:          0,
	}
	e.byID[id] = m
	e.byOwner[owner] = append(e.byOwner[owner], m)

	if e.store != nil {
		e.store.InsertMemory(*m)
	}
	return m
}

// Get returns a memory by id.
func (e *Engine) Get(id string) (*Memory, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.byID[id]
	return m, ok
}

// ForOwner returns every memory (including forgotten ones) an agent
// holds, for internal bookkeeping (cleanup, decay sweeps).
func (e *Engine) ForOwner(owner agent.ID) []*Memory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Memory, len(e.byOwner[owner]))
	copy(out, e.byOwner[owner])
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
