// Soft-clamp sigmoid and the personality mutation primitive. See design
// doc glossary: "a saturating update that maps the linear trait delta
// into a bounded change, preventing [0.05,0.95] violations."
package agent

import (
	"math"
	"time"
)

// softClamp maps a proposed new value toward the open interval
// (TraitMin, TraitMax) using a logistic squash centered on the interval,
// so a trait asymptotically approaches but never reaches either bound no
// matter how large or how often deltas are applied (testable property 1,
// end-to-end scenario S4: 1000 deltas of +0.5 to the same trait still
// end at <= 0.95 and never decrease).
func softClamp(current, delta float64) float64 {
	span := TraitMax - TraitMin
	mid := TraitMin + span/2

	// Normalize current position within the span to a logit, apply the
	// delta in logit space (so deltas near the edges compress more than
	// deltas near the middle), then map back through the sigmoid.
	x := (current - mid) / (span / 2) // roughly -1..1
	// Guard the boundary so logit() doesn't blow up.
	if x > 0.999 {
		x = 0.999
	}
	if x < -0.999 {
		x = -0.999
	}
	logit := math.Log((1 + x) / (1 - x))
	logit += delta * 2 // scale so typical deltas (±0.01-0.5) move meaningfully
	squashed := 1 / (1 + math.Exp(-logit))  // 0..1
	mapped := TraitMin + squashed*span

	if mapped < TraitMin {
		mapped = TraitMin
	}
	if mapped > TraitMax {
		mapped = TraitMax
	}
	return mapped
}

// ApplyTraitDelta mutates a single trait through the soft-clamp sigmoid
// and appends a Delta-Log entry. Reason is a short free-text label for
// audit (e.g. "oracle:trust-shift", "mentorship").
func (a *Agent) ApplyTraitDelta(trait Trait, delta float64, reason string) DeltaLogEntry {
	from := a.Personality[trait]
	to := softClamp(from, delta)
	a.Personality[trait] = to

	entry := DeltaLogEntry{
		Trait:  trait,
		From:   from,
		To:     to,
		Delta:  to - from,
		Reason: reason,
		At:     time.Now(),
	}
	a.DeltaLog = append(a.DeltaLog, entry)
	return entry
}

// ApplyVitalDecay advances hunger/fatigue by the elapsed hours, per
// spec.md §4.3: hunger += Δh/4, fatigue += Δh/6, both capped at 1.
func (a *Agent) ApplyVitalDecay(deltaHours float64) {
	if deltaHours <= 0 {
		return
	}
	a.Vitals.Hunger = minf(1, a.Vitals.Hunger+deltaHours/4)
	a.Vitals.Fatigue = minf(1, a.Vitals.Fatigue+deltaHours/6)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
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

// ApplyAction applies the mood shift carried by a cognitive frame,
// bounded [0,1] on both axes (spec.md §4.3).
func (a *Agent) ApplyAction(arousalDelta, valenceDelta float64, label string) {
	a.Mood.Arousal = clampUnit(a.Mood.Arousal + arousalDelta)
	a.Mood.Valence = clampUnit(a.Mood.Valence + valenceDelta)
	if label != "" {
		a.Mood.Label = label
	}
	a.LastInteractionAt = time.Now()
}
