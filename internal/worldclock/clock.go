package worldclock

import (
	"log/slog"
	"sync"
	"time"
)

// MemoryDecay is satisfied by internal/memory.Engine.
type MemoryDecay interface {
	DecaySweep(deltaHours float64)
	CleanupSweep() int
}

// TierWork runs the per-active-agent work for one tick: vitals decay,
// autonomous goal progression, and a chance of NPC-to-NPC gossip.
// Satisfied by internal/tiering.Scheduler.
type TierWork interface {
	RunActiveTick(deltaHours float64)
}

// QuestExpiry is satisfied by internal/quest.Book.
type QuestExpiry interface {
	ExpirySweep(now time.Time) int
}

// Clock drives simulated time and owns WorldTime and the event log.
// Clock holds no random source itself; the world-clock stream
// (entropy.Registry.WorldClock) is handed by the container straight to
// the collaborators that roll dice, such as the faction engine.
type Clock struct {
	mu        sync.Mutex
	time      WorldTime
	events    *EventLog
	timeScale float64 // simulated hours per autorun tick

	mem         MemoryDecay
	quests      QuestExpiry
	tier        TierWork
	factionTick func(deltaHours float64, simDay int)
	onDay       func(day int)
	lastStatsDay int
	statsRun     bool

	stop    chan struct{}
	running bool
}

// Config wires Clock's collaborators. TimeScale is simulated hours per
// autorun tick (spec.md Open Questions: "timeScale = simulated hours
// per tick"); concrete default is a deployment config choice, not a
// spec mandate, so it's required here rather than hardcoded.
//
// FactionTick is internal/faction.Engine.Tick adapted to a narrow
// closure rather than an interface, since Engine.Tick's real signature
// (morale/territoryBonus callbacks, []Event return) is richer than
// Clock needs to know about.
// OnDay, if set, runs on the first Tick and then on every Tick that ends
// on a different simulated day than the previous OnDay call (spec.md §10
// supplemented feature: daily stats-history
// snapshot, grounded on the teacher's eng.OnDay callback).
type Config struct {
	TimeScale   float64
	Mem         MemoryDecay
	Quests      QuestExpiry
	Tier        TierWork
	FactionTick func(deltaHours float64, simDay int)
	OnDay       func(day int)
}

// New creates a Clock at time zero.
func New(cfg Config) *Clock {
	return &Clock{
		events:      NewEventLog(),
		timeScale:   cfg.TimeScale,
		mem:         cfg.Mem,
		quests:      cfg.Quests,
		tier:        cfg.Tier,
		factionTick: cfg.FactionTick,
		onDay:       cfg.OnDay,
	}
}

// SetTimeScale changes the simulated hours per autorun tick, mirroring
// the teacher's admin-settable Eng.Speed (spec.md §6 "POST /world/start
// ... WorldClock.run(T,S)" takes a fresh timeScale on every start).
func (c *Clock) SetTimeScale(ts float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeScale = ts
}

// Now returns the current WorldTime.
func (c *Clock) Now() WorldTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

// Events returns the event log.
func (c *Clock) Events() *EventLog {
	return c.events
}

// Tick advances the world by deltaHours, running the fixed pipeline
// order from spec.md §4.7:
//  1. advance WorldTime
//  2. MemoryEngine.decaySweep(Δh)
//  3. FactionEngine.tick(Δh)
//  4. per-agent active-tier work
//  5. quest expiry sweep
//  6. append a tick-summary event
func (c *Clock) Tick(deltaHours float64) {
	if deltaHours <= 0 {
		deltaHours = DefaultTickDeltaHours
	}

	c.mu.Lock()
	c.time.Advance(deltaHours)
	day := c.time.Day
	c.mu.Unlock()

	if c.mem != nil {
		c.mem.DecaySweep(deltaHours)
	}
	if c.factionTick != nil {
		c.factionTick(deltaHours, day)
	}
	if c.tier != nil {
		c.tier.RunActiveTick(deltaHours)
	}
	if c.quests != nil {
		removed := c.quests.ExpirySweep(time.Now())
		if removed > 0 {
			c.events.AppendEvent("quests_expired", "quests expired this tick", map[string]any{"count": removed, "day": day})
		}
	}

	if c.onDay != nil && (!c.statsRun || day != c.lastStatsDay) {
		c.statsRun = true
		c.lastStatsDay = day
		c.onDay(day)
	}
}

// Autorun issues ticks of timeScale simulated hours every tickInterval
// wall-seconds until Stop is called (spec.md §4.7). It blocks the
// calling goroutine; callers run it with `go clock.Autorun(...)`,
// mirroring the teacher's Engine.Run blocking-loop pattern.
func (c *Clock) Autorun(tickInterval time.Duration) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	slog.Info("worldclock autorun started", "tick_interval", tickInterval, "time_scale", c.timeScale)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			slog.Info("worldclock autorun stopped")
			return
		case <-ticker.C:
			c.Tick(c.timeScale)
		}
	}
}

// Stop halts autorun after the current tick finishes (spec.md §5:
// "Autorun can be stopped at any time; the current tick finishes").
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}
