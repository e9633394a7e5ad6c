package memory

import (
	"fmt"
	"sort"

	"github.com/talgya/npcforge/internal/agent"
)

// ShareDiscount is the multiplier applied to a shared memory's strength
// on top of the recipient's trust in the sharer (spec.md §4.4,
// end-to-end scenario S3: strength <= origStrength * trust * 0.7).
const ShareDiscount = 0.7

// DefaultShareTopM is the default number of strongest shareable
// memories considered per share() call (spec.md §4.4 "top-M").
const DefaultShareTopM = 3

// Share implements gossip: `from` tells `to` its strongest shareable
// memories about `subject`. Secondhand memories are marked with a
// Source pointer and, per spec.md §4.4, never upgrade to firsthand even
// if `to` later experiences the same subject directly (that insertion
// is a separate firsthand Memory, not a mutation of the secondhand one).
func (e *Engine) Share(from, to agent.ID, subject Subject, trustToFrom float64, topM int) []*Memory {
	if topM <= 0 {
		topM = DefaultShareTopM
	}
	if trustToFrom < 0 {
		trustToFrom = 0
	}
	if trustToFrom > 1 {
		trustToFrom = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var candidates []*Memory
	for _, m := range e.byOwner[from] {
		if m.IsForgotten() {
			continue
		}
		if m.Subject.Kind != subject.Kind || m.Subject.ID != subject.ID {
			continue
		}
		candidates = append(candidates, m)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Strength > candidates[j].Strength
	})
	if len(candidates) > topM {
		candidates = candidates[:topM]
	}

	var inserted []*Memory
	for i, src := range candidates {
		secondStrength := src.Strength * trustToFrom * ShareDiscount
		if secondStrength < 0 {
			secondStrength = 0
		}
		fromCopy := from
		m := &Memory{
			ID:              fmt.Sprintf("%s-gossip-%d-%d", src.ID, to, i),
			OwnerAgent:      to,
			Subject:         subject,
			Category:        src.Category,
			Content:         src.Content,
			Strength:        secondStrength,
			EmotionalWeight: src.EmotionalWeight,
			Source:          &fromCopy,
		}
		e.byID[m.ID] = m
		e.byOwner[to] = append(e.byOwner[to], m)
		inserted = append(inserted, m)

		if e.store != nil {
			e.store.InsertMemory(*m)
		}
	}
	return inserted
}

// InsertRumor registers a new rumor created by an agent.
func (e *Engine) InsertRumor(id string, about Subject, content string, createdBy agent.ID) *Rumor {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := &Rumor{
		ID:        id,
		About:     about,
		Content:   content,
		CreatedBy: createdBy,
		Strength:  1.0,
		SpreadSet: map[agent.ID]bool{createdBy: true},
	}
	e.rumors[id] = r
	return r
}

// SpreadRumor propagates a rumor to a new agent, marking it in the
// spread set. Returns false if the agent had already heard it.
func (e *Engine) SpreadRumor(id string, to agent.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rumors[id]
	if !ok || r.SpreadSet[to] {
		return false
	}
	r.SpreadSet[to] = true
	return true
}

// DecayRumors applies the same exponential decay rule memories use
// (spec.md §3: "strength decays as memories do") with emotional weight
// 0 (rumors carry no personal emotional charge of their own).
func (e *Engine) DecayRumors(deltaHours float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rumors {
		r.Strength = decayedStrength(r.Strength, 0, deltaHours)
	}
}

// RumorsAbout returns all non-forgotten rumors about a subject that a
// given agent has heard (is in the spread set).
func (e *Engine) RumorsAbout(heardBy agent.ID, subject Subject, limit int) []Rumor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Rumor
	for _, r := range e.rumors {
		if r.Strength < ForgottenThreshold {
			continue
		}
		if r.About.Kind != subject.Kind || r.About.ID != subject.ID {
			continue
		}
		if !r.SpreadSet[heardBy] {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
