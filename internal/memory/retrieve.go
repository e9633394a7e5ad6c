package memory

import (
	"time"

	"github.com/talgya/npcforge/internal/agent"
)

// DefaultRetrievalLimit is the default cap N on ranked retrieval
// (spec.md §4.4).
const DefaultRetrievalLimit = 8

// ReinforceAlpha controls the reinforcement-on-reference rule:
// s ← min(1, s + α·(1−s)).
const ReinforceAlpha = 0.25

// Reinforce bumps a memory's strength and ref count on retrieval
// (spec.md §3, §4.4).
func (e *Engine) Reinforce(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.byID[id]
	if !ok {
		return
	}
	m.Strength = m.Strength + ReinforceAlpha*(1-m.Strength)
	if m.Strength > 1 {
		m.Strength = 1
	}
	m.RefCount++
	m.LastReferencedAt = time.Now()
}

// Retrieve returns the top-N non-forgotten memories an agent holds about
// subject, ordered by retrieval score descending (spec.md §4.4), and
// reinforces each one returned (context assembly always counts as a
// reference, per spec.md §4.6 Pass 1).
func (e *Engine) Retrieve(owner agent.ID, subject Subject, limit int) []Memory {
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	e.mu.RLock()
	var candidates []Memory
	for _, m := range e.byOwner[owner] {
		if m.IsForgotten() {
			continue
		}
		if subject.ID != "" && (m.Subject.Kind != subject.Kind || m.Subject.ID != subject.ID) {
			continue
		}
		candidates = append(candidates, *m)
	}
	e.mu.RUnlock()

	sortByRetrievalScore(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for _, m := range candidates {
		e.Reinforce(m.ID)
	}
	return candidates
}

// RetrieveAny returns the top-N non-forgotten memories an agent holds
// regardless of subject (used for general context assembly, e.g. rumors
// heard about a player from any source).
func (e *Engine) RetrieveAny(owner agent.ID, limit int) []Memory {
	return e.Retrieve(owner, Subject{}, limit)
}
