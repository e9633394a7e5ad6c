// Package worldclock drives simulated time: manual and autorun tick
// modes, the fixed per-tick pipeline order (spec.md §4.7), and the
// bounded world-event log.
//
// Grounded on the teacher's internal/engine/tick.go Engine (Tick
// counter, Speed/Interval/Running fields, Run/Stop loop,
// OnTick/OnHour/OnDay/OnWeek/OnSeason callback cadence), generalized
// from the teacher's fixed tick-to-callback mapping to spec.md's
// single ordered per-tick pipeline plus a configurable timeScale.
package worldclock

import "time"

// WorldTime is the simulated clock's current reading (spec.md §3).
type WorldTime struct {
	Day        int     `json:"day"`
	Hour       int     `json:"hour"`
	Minute     int     `json:"minute"`
	TotalHours float64 `json:"total_hours"`
}

// Advance moves WorldTime forward by deltaHours, rolling minute/hour/day
// over as needed.
func (t *WorldTime) Advance(deltaHours float64) {
	t.TotalHours += deltaHours

	totalMinutes := int(t.TotalHours * 60)
	t.Minute = totalMinutes % 60
	totalHours := totalMinutes / 60
	t.Hour = totalHours % 24
	t.Day = totalHours / 24
}

// Event is one entry in the bounded world-event log (spec.md §4.7
// step 6: "latest 1000").
type Event struct {
	At          time.Time      `json:"at"`
	Day         int            `json:"day"`
	Kind        string         `json:"kind"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// MaxEventLogSize bounds the ring buffer (spec.md §4.7 step 6).
const MaxEventLogSize = 1000

// DefaultTickDeltaHours is the default Δh for a manual tick (spec.md
// §4.7: "one tick advances Δh hours (default 1.0)").
const DefaultTickDeltaHours = 1.0
