package tiering

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/talgya/npcforge/internal/agent"
)

type alwaysNearby struct{ zone string }

func (n alwaysNearby) HasPlayerNearby(zone string) bool { return zone == n.zone }

func TestClassifyActiveWithinInteractionWindow(t *testing.T) {
	a := agent.New(1, "guard", agent.Personality{})
	a.LastInteractionAt = time.Now()

	if got := Classify(a, time.Now(), nil); got != TierActive {
		t.Fatalf("Classify = %v, want Active", got)
	}
}

func TestClassifyNearbyWhenPlayerInZone(t *testing.T) {
	a := agent.New(1, "guard", agent.Personality{})
	a.LastInteractionAt = time.Now().Add(-time.Hour)
	a.Location = &agent.Location{Zone: "market"}

	got := Classify(a, time.Now(), alwaysNearby{zone: "market"})
	if got != TierNearby {
		t.Fatalf("Classify = %v, want Nearby", got)
	}
}

func TestClassifyDormantAfterLongIdle(t *testing.T) {
	a := agent.New(1, "guard", agent.Personality{})
	a.LastInteractionAt = time.Now().Add(-time.Hour)

	got := Classify(a, time.Now(), nil)
	if got != TierDormant {
		t.Fatalf("Classify = %v, want Dormant", got)
	}
}

func TestShouldRunCadence(t *testing.T) {
	if !ShouldRun(TierActive, 1, 60) {
		t.Fatalf("Active should always run")
	}
	if ShouldRun(TierNearby, 1, 60) {
		t.Fatalf("Nearby should not run on odd ticks")
	}
	if !ShouldRun(TierNearby, 2, 60) {
		t.Fatalf("Nearby should run on even ticks")
	}
	if !ShouldRun(TierIdle, 8, 60) {
		t.Fatalf("Idle should run every 8th tick")
	}
	if ShouldRun(TierIdle, 7, 60) {
		t.Fatalf("Idle should not run on tick 7")
	}
}

func TestSchedulerRunsWorkForDueTiersOnly(t *testing.T) {
	active := agent.New(1, "guard", agent.Personality{})
	active.LastInteractionAt = time.Now()

	dormant := agent.New(2, "farmer", agent.Personality{})
	dormant.LastInteractionAt = time.Now().Add(-time.Hour)

	var mu sync.Mutex
	var ran []agent.ID
	var count int32

	s := NewScheduler(func() []*agent.Agent {
		return []*agent.Agent{active, dormant}
	}, nil, func(a *agent.Agent, tier Tier) {
		atomic.AddInt32(&count, 1)
		mu.Lock()
		ran = append(ran, a.ID)
		mu.Unlock()
	}, 60)

	s.RunActiveTick(1.0) // tick 1: dormant's cadence (tick%60==0) not due

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != active.ID {
		t.Fatalf("expected only the active agent to run on tick 1, got %v", ran)
	}
}

func TestWorkerPoolSizeCapped(t *testing.T) {
	if got := WorkerPoolSize(); got > MaxWorkers || got < 1 {
		t.Fatalf("WorkerPoolSize() = %d, want within [1,%d]", got, MaxWorkers)
	}
}
