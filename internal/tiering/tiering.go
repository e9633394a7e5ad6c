// Package tiering classifies agents into Active/Nearby/Idle/Dormant
// and bounds per-tick work accordingly (spec.md §4.8).
//
// No teacher file implements a tiered scheduler (the teacher processes
// every agent every tick unconditionally); this package is grounded on
// the teacher's general "process all agents, skip the dead ones"
// iteration shape in internal/engine/simulation.go, generalized into a
// classify-then-bounded-fan-out scheduler using golang.org/x/sync's
// errgroup (sourced from the wider example pack for exactly this kind
// of bounded concurrent fan-out, which the teacher itself has no
// equivalent for).
package tiering

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/npcforge/internal/agent"
)

// Tier is a per-agent work class (spec.md §4.8, glossary).
type Tier int

const (
	TierActive Tier = iota
	TierNearby
	TierIdle
	TierDormant
)

func (t Tier) String() string {
	switch t {
	case TierActive:
		return "active"
	case TierNearby:
		return "nearby"
	case TierIdle:
		return "idle"
	case TierDormant:
		return "dormant"
	default:
		return "unknown"
	}
}

// Thresholds for reclassification (spec.md §4.8).
const (
	ActiveInteractionWindow = 60 * time.Second
	DormantIdleWindow       = 30 * time.Minute
)

// MaxWorkers caps the bounded worker pool regardless of CPU count
// (spec.md §4.8: "size proportional to CPU count, cap 32").
const MaxWorkers = 32

// WorkerPoolSize returns the pool size for this process: proportional
// to NumCPU, capped at MaxWorkers.
func WorkerPoolSize() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}
	return n
}

// NearbyChecker reports whether an agent shares a zone with any player
// (spec.md §4.8 Nearby classification). Implemented by
// internal/proximity.
type NearbyChecker interface {
	HasPlayerNearby(zone string) bool
}

// Classify determines an agent's tier given its last interaction time,
// current zone, and a nearby-player check (spec.md §4.8).
func Classify(a *agent.Agent, now time.Time, nearby NearbyChecker) Tier {
	if now.Sub(a.LastInteractionAt) <= ActiveInteractionWindow {
		return TierActive
	}
	if a.Location != nil && nearby != nil && nearby.HasPlayerNearby(a.Location.Zone) {
		return TierNearby
	}
	if now.Sub(a.LastInteractionAt) > DormantIdleWindow {
		return TierDormant
	}
	return TierIdle
}

// ShouldRun reports whether a tier does work on the given tick counter
// (spec.md §4.8 per-tier cadence; ticksPerHour scales the Dormant
// once-per-hour cadence to the caller's tick granularity).
func ShouldRun(t Tier, tickCount uint64, ticksPerHour uint64) bool {
	switch t {
	case TierActive:
		return true
	case TierNearby:
		return tickCount%2 == 0
	case TierIdle:
		return tickCount%8 == 0
	case TierDormant:
		if ticksPerHour == 0 {
			ticksPerHour = 1
		}
		return tickCount%ticksPerHour == 0
	default:
		return false
	}
}

// Work is the per-agent tick action, parameterized by tier so a
// Dormant agent gets a heartbeat instead of a full cognition pass
// (spec.md §4.8: "Dormant: ... heartbeat, no cognition").
type Work func(a *agent.Agent, tier Tier)

// Scheduler classifies agents each tick and fans tier work out across a
// bounded worker pool, skipping work for tiers not due this tick
// (spec.md §4.8: "Active and Nearby never slip" is satisfied by
// running them unconditionally; Idle/Dormant slip via ShouldRun).
type Scheduler struct {
	agents  func() []*agent.Agent
	nearby  NearbyChecker
	work    Work
	tickNum uint64

	// TicksPerHour scales the Dormant cadence; callers pass the
	// deployment's ticks-per-simulated-hour constant.
	TicksPerHour uint64
}

// NewScheduler creates a Scheduler over a live agent roster.
func NewScheduler(agents func() []*agent.Agent, nearby NearbyChecker, work Work, ticksPerHour uint64) *Scheduler {
	return &Scheduler{agents: agents, nearby: nearby, work: work, TicksPerHour: ticksPerHour}
}

// RunActiveTick classifies every agent and runs due work across a
// bounded errgroup pool (satisfies internal/worldclock.TierWork).
// deltaHours is accepted for signature compatibility with
// worldclock's pipeline slot; per-agent work derives its own timing
// from tier cadence, not from deltaHours directly.
func (s *Scheduler) RunActiveTick(deltaHours float64) {
	s.tickNum++
	now := time.Now()
	agents := s.agents()

	g := new(errgroup.Group)
	g.SetLimit(WorkerPoolSize())

	for _, a := range agents {
		a := a
		tier := Classify(a, now, s.nearby)
		if !ShouldRun(tier, s.tickNum, s.TicksPerHour) {
			continue
		}
		g.Go(func() error {
			if s.work != nil {
				s.work(a, tier)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// WaitGroupContext is a convenience for callers that want to run a
// bounded batch of arbitrary work (e.g. cross-agent gossip dispatch)
// outside the tick pipeline, sharing the same worker cap.
func WaitGroupContext(ctx context.Context) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(WorkerPoolSize())
	return g, ctx
}
