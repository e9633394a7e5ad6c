package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/apperr"
	"github.com/talgya/npcforge/internal/proximity"
)

// agentHandle pairs a live Agent with the mailbox that serializes all
// mutation against it (spec.md §4.3: "a single goroutine/thread per
// agent owns writes").
type agentHandle struct {
	agent   *agent.Agent
	mailbox *agent.Mailbox
}

// Registry owns every live agent handle. It is the one place Brain,
// Tiering, and the boundary layer resolve an agent.ID to live state,
// satisfying internal/conversation.AgentLookup and
// internal/tiering's agent enumeration.
type Registry struct {
	mu      sync.RWMutex
	handles map[agent.ID]*agentHandle
	nextID  uint64
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[agent.ID]*agentHandle)}
}

// Create initializes a new agent with the given role and personality,
// registers its mailbox, and returns it (spec.md §6 "POST /npc/init").
func (r *Registry) Create(role agent.Role, personality agent.Personality) *agent.Agent {
	r.mu.Lock()
	r.nextID++
	id := agent.ID(r.nextID)
	r.mu.Unlock()

	a := agent.New(id, role, personality)
	h := &agentHandle{agent: a, mailbox: agent.NewMailbox(a)}

	r.mu.Lock()
	r.handles[id] = h
	r.mu.Unlock()
	return a
}

// Agent resolves an id to its live state (spec.md §6 "GET
// /npc/status/{id}"), satisfying internal/conversation.AgentLookup.
func (r *Registry) Agent(id agent.ID) (*agent.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	return h.agent, true
}

// List returns every live agent, sorted by id, for pagination by
// callers (spec.md §6 "GET /npc/list").
func (r *Registry) List() []*agent.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*agent.Agent, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h.agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All satisfies internal/tiering's agent-enumeration callback.
func (r *Registry) All() []*agent.Agent {
	return r.List()
}

// Submit runs fn against an agent's state through its mailbox,
// serializing with every other mutation for that agent (spec.md §5:
// "effects of interaction A complete before interaction B begins").
func (r *Registry) Submit(ctx context.Context, id agent.ID, fn func(*agent.Agent)) error {
	r.mu.RLock()
	h, ok := r.handles[id]
	r.mu.RUnlock()
	if !ok {
		return apperr.New(apperr.AgentUnknown, fmt.Sprintf("agent %d not found", id))
	}
	return h.mailbox.Submit(ctx, fn)
}

// UpdateLocation records an agent's new location and updates the
// proximity index (spec.md §6 "POST /conversation/location/npc/{id}").
func (r *Registry) UpdateLocation(ctx context.Context, id agent.ID, loc agent.Location, idx *proximity.Index) error {
	return r.Submit(ctx, id, func(a *agent.Agent) {
		a.Location = &loc
		if idx != nil {
			idx.Update(id, loc)
		}
	})
}

// lockOrdered acquires two agents' mailboxes in a globally fixed order
// by numeric id, avoiding deadlock on cross-agent operations like
// gossip and group messages (spec.md §5: "acquire both mailboxes in a
// globally fixed order (by agent id)").
func (r *Registry) lockOrdered(ctx context.Context, a, b agent.ID, fn func(*agent.Agent, *agent.Agent)) error {
	first, second := a, b
	if first > second {
		first, second = second, first
	}
	var firstAgent, secondAgent *agent.Agent
	if err := r.Submit(ctx, first, func(ag *agent.Agent) { firstAgent = ag }); err != nil {
		return err
	}
	if err := r.Submit(ctx, second, func(ag *agent.Agent) { secondAgent = ag }); err != nil {
		return err
	}
	if a == first {
		fn(firstAgent, secondAgent)
	} else {
		fn(secondAgent, firstAgent)
	}
	return nil
}

// touchInteraction stamps LastInteractionAt for Tiering's Active
// classification (spec.md §4.8: "interacted within 60s").
func touchInteraction(a *agent.Agent, now time.Time) {
	a.LastInteractionAt = now
}
