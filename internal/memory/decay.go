package memory

import "math"

// DecayLambda is the base decay rate used by the exponential strength
// decay rule (spec.md §3):
//
//	s ← s · exp(−λ·Δh·(1 − w))
//
// where w is emotionalWeight (higher weight ⇒ slower decay). Chosen so
// a weight-0.2 memory roughly halves in a day (24h) and a weight-0.9
// memory decays far more slowly, matching end-to-end scenario S2.
const DecayLambda = 0.03

// decayedStrength applies the rule for one memory over deltaHours.
func decayedStrength(strength, emotionalWeight, deltaHours float64) float64 {
	if deltaHours <= 0 {
		return strength
	}
	factor := math.Exp(-DecayLambda * deltaHours * (1 - emotionalWeight))
	next := strength * factor
	if next < 0 {
		next = 0
	}
	return next
}

// DecaySweep applies the exponential decay rule to every held memory for
// the elapsed hours, in a single bulk write to Store (spec.md §4.1, §4.4:
// "One sweep per world tick; batched through Store"). Forgotten-but-not-
// yet-deletable memories remain in the index (excluded from retrieval by
// IsForgotten) until a cleanup sweep removes them.
func (e *Engine) DecaySweep(deltaHours float64) {
	if deltaHours <= 0 {
		return
	}
	e.mu.Lock()
	var updates []StrengthUpdate
	for _, m := range e.byID {
		next := decayedStrength(m.Strength, m.EmotionalWeight, deltaHours)
		if next != m.Strength {
			m.Strength = next
			updates = append(updates, StrengthUpdate{ID: m.ID, Strength: next})
		}
	}
	e.mu.Unlock()

	if e.store != nil && len(updates) > 0 {
		e.store.BulkUpdateStrength(updates)
	}
}

// CleanupSweep removes memories whose strength has fallen below
// DeletionThreshold from the in-memory index and issues a single bulk
// delete to Store (spec.md §4.4: "below 0.01 → scheduled for deletion in
// next cleanup sweep").
func (e *Engine) CleanupSweep() int {
	e.mu.Lock()
	removed := 0
	for id, m := range e.byID {
		if m.Strength >= DeletionThreshold {
			continue
		}
		delete(e.byID, id)
		owned := e.byOwner[m.OwnerAgent]
		for i, cand := range owned {
			if cand.ID == id {
				e.byOwner[m.OwnerAgent] = append(owned[:i], owned[i+1:]...)
				break
			}
		}
		removed++
	}
	e.mu.Unlock()

	if e.store != nil && removed > 0 {
		e.store.DeleteBelow(DeletionThreshold)
	}
	return removed
}
