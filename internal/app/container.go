package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/apperr"
	"github.com/talgya/npcforge/internal/brain"
	"github.com/talgya/npcforge/internal/cache"
	"github.com/talgya/npcforge/internal/conversation"
	"github.com/talgya/npcforge/internal/entropy"
	"github.com/talgya/npcforge/internal/faction"
	"github.com/talgya/npcforge/internal/memory"
	"github.com/talgya/npcforge/internal/oracle"
	"github.com/talgya/npcforge/internal/proximity"
	"github.com/talgya/npcforge/internal/quest"
	"github.com/talgya/npcforge/internal/relation"
	"github.com/talgya/npcforge/internal/store"
	"github.com/talgya/npcforge/internal/tiering"
	"github.com/talgya/npcforge/internal/worldclock"
)

// Container wires every component package together, replacing the
// teacher's Simulation/Engine module-level pair with an explicit,
// dependency-injected struct built once at process start (spec.md §9
// Design Notes). Tests construct a fresh Container per test rather
// than sharing package-level state.
type Container struct {
	Config Config

	DB       *store.DB
	Cache    *cache.Cache
	WriteQ   *store.WriteBehindQueue
	Entropy  *entropy.Registry
	Agents   *Registry
	Memory   *memory.Engine
	Relation *relation.Store
	Reputation *relation.ReputationBook
	Oracle   *oracle.Oracle
	Brain    *brain.Brain
	Proximity *proximity.Index
	Factions *faction.Engine
	Quests   *quest.Book
	Conversation *conversation.Orchestrator
	Clock    *worldclock.Clock
	Tiering  *tiering.Scheduler
}

// New builds a fully-wired Container from cfg, opening the durable
// store and starting the write-behind queue (spec.md §4.1). Callers
// must call Close when done.
func New(cfg Config) (*Container, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	c := &Container{
		Config:     cfg,
		DB:         db,
		Cache:      cache.New(cfg.CacheCapacity, time.Duration(cfg.CacheTTLSeconds)*time.Second),
		WriteQ:     store.NewWriteBehindQueue(db),
		Entropy:    entropy.NewRegistry(cfg.MasterSeed),
		Agents:     NewRegistry(),
		Relation:   relation.NewStore(),
		Reputation: relation.NewReputationBook(),
		Proximity:  proximity.NewIndex(proximity.DefaultNearbyRadius),
		Quests:     quest.NewBook(),
	}
	c.Factions = faction.NewEngine(c.Entropy.WorldClock())
	c.Memory = memory.NewEngine(db)
	c.Oracle = oracle.New(oracle.NewClient(cfg.AnthropicKey, cfg.OracleRatePerMin))
	c.Tiering = tiering.NewScheduler(c.Agents.All, c.Proximity, c.tierWork, cfg.TicksPerHour)

	// Clock's FactionTick closure captures c (not c.Clock directly) so it
	// can call c.Clock.Events() once the field below is assigned — by the
	// time Tick actually runs, construction has long finished.
	//
	// Trade routes roll on the first tick of each simulated day; later
	// ticks of the same day pass simDay=-1 so only drift and battles run.
	lastRollDay := -1
	c.Clock = worldclock.New(worldclock.Config{
		TimeScale: cfg.TimeScale,
		Mem:       c.Memory,
		Quests:    c.Quests,
		Tier:      c.Tiering,
		FactionTick: func(deltaHours float64, simDay int) {
			if simDay == lastRollDay {
				simDay = -1
			} else {
				lastRollDay = simDay
			}
			events := c.Factions.Tick(deltaHours, simDay, c.factionMorale, c.territoryBonus)
			for _, e := range events {
				c.Clock.Events().AppendEvent(string(e.Kind), e.Description, map[string]any{
					"faction_a": e.FactionA, "faction_b": e.FactionB,
				})
			}
			c.Relation.DriftTick(deltaHours)
		},
		OnDay: func(day int) {
			c.saveStatsSnapshot(day)
		},
	})

	c.Brain = brain.New(c.Oracle, c.Memory, c.Reputation, c.Clock.Events())
	c.Conversation = conversation.New(conversation.Config{
		Agents:      c.Agents,
		Proximity:   c.Proximity,
		Familiarity: c.Relation,
		Oracle:      c.Oracle,
		Brain:       c.Brain,
		Enemies:     c.Factions,
		IDFunc:      func() string { return uuid.NewString() },
	})

	go c.WriteQ.Run()

	slog.Info("container wired", "db_path", cfg.DBPath, "seed", cfg.MasterSeed, "time_scale", cfg.TimeScale)
	return c, nil
}

// Close stops the write-behind queue, WorldClock autorun, and the
// durable store connection.
func (c *Container) Close() error {
	c.Clock.Stop()
	c.WriteQ.Stop()
	return c.DB.Close()
}

// tierWork is internal/tiering.Work: per-agent per-tick action
// parameterized by tier (spec.md §4.7 step 4, §4.8).
func (c *Container) tierWork(a *agent.Agent, tier tiering.Tier) {
	deltaHours := c.Config.TimeScale
	if deltaHours <= 0 {
		deltaHours = worldclock.DefaultTickDeltaHours
	}

	if tier == tiering.TierDormant {
		// heartbeat only, no cognition (spec.md §4.8).
		return
	}

	a.ApplyVitalDecay(deltaHours)
	c.WriteQ.Enqueue(store.VitalsWrite{
		AgentID: uint64(a.ID), Hunger: a.Vitals.Hunger, Fatigue: a.Vitals.Fatigue,
		MoodLabel: a.Mood.Label, MoodArousal: a.Mood.Arousal, MoodValence: a.Mood.Valence,
	})

	for _, g := range a.ActiveGoals() {
		a.ProgressGoal(g.ID, 0.02*deltaHours)
	}

	if tier != tiering.TierActive {
		return
	}

	// Active agents get a small chance of autonomous NPC-to-NPC gossip
	// with a relation-weighted partner (spec.md §4.7 step 4).
	c.maybeGossip(a)
}

// maybeGossip picks a random nearby agent (if any), takes the subject of
// one of a's memories at random, and shares up to memory.DefaultShareTopM
// of a's strongest memories about that subject, scaled by the partner's
// trust toward a. Run from the active tier's per-tick work.
func (c *Container) maybeGossip(a *agent.Agent) {
	if a.Location == nil {
		return
	}
	rng := c.Entropy.ForAgent(uint64(a.ID))
	if !rng.Bool(0.05) {
		return
	}
	nearby := c.Proximity.Nearby(*a.Location, proximity.DefaultNearbyRadius, a.ID)
	if len(nearby) == 0 {
		return
	}
	partner := nearby[rng.Intn(len(nearby))]
	if partner == a.ID {
		return
	}

	mems := c.Memory.ForOwner(a.ID)
	if len(mems) == 0 {
		return
	}
	subj := mems[rng.Intn(len(mems))].Subject
	trust := c.Relation.Trust(uint64(partner), uint64(a.ID))
	if trust < 0 {
		trust = 0
	}
	c.Memory.Share(a.ID, partner, subj, trust, memory.DefaultShareTopM)
}

// factionMorale derives a faction's battle morale from the average
// mood valence of its living agents (grounded on the teacher's
// Settlement satisfaction-as-morale proxy, generalized per-faction).
func (c *Container) factionMorale(f faction.ID) float64 {
	var total, n float64
	for _, a := range c.Agents.List() {
		if a.FactionID != nil && faction.ID(*a.FactionID) == f {
			total += a.Mood.Valence
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return 0.5 + total/n
}

// territoryBonus gives the controlling faction a home-ground
// advantage (spec.md §4.11: "territoryBonus").
func (c *Container) territoryBonus(territoryID string, f faction.ID) float64 {
	t, ok := c.Factions.Territory(territoryID)
	if !ok {
		return 1.0
	}
	if t.ControllingFaction == f {
		return 1.0 + 0.25*t.ControlStrength
	}
	return 1.0
}

// saveStatsSnapshot records one day's population/mood/conversation/
// quest aggregate for history (spec.md §10 supplemented feature,
// grounded on the teacher's daily SaveWorldState/stats-snapshot
// callback in cmd/worldsim/main.go's eng.OnDay).
func (c *Container) saveStatsSnapshot(day int) {
	agents := c.Agents.List()
	var arousal, valence float64
	for _, a := range agents {
		arousal += a.Mood.Arousal
		valence += a.Mood.Valence
	}
	n := float64(len(agents))
	if n > 0 {
		arousal /= n
		valence /= n
	}
	snap := store.StatsSnapshot{
		AtDay:          day,
		AgentCount:     len(agents),
		AvgMoodArousal: arousal,
		AvgMoodValence: valence,
		ActiveGroups:   c.Conversation.ActiveGroupCount(),
		OpenQuests:     c.Quests.OpenCount(),
	}
	if err := c.DB.SaveStatsSnapshot(snap); err != nil {
		slog.Warn("stats snapshot failed", "day", day, "error", err)
	}
}

// ForceFactionTick drives FactionEngine.Tick directly with the
// Container's own morale/territory-bonus functions, for boundary
// routes that need an out-of-cadence battle resolution or trade roll
// (spec.md §6 "POST /battle/{id}/resolve", "POST /traderoute/execute")
// without waiting for the next WorldClock tick.
func (c *Container) ForceFactionTick(deltaHours float64, simDay int) []faction.Event {
	return c.Factions.Tick(deltaHours, simDay, c.factionMorale, c.territoryBonus)
}

// Cognize runs Brain.Cognize against a live agent resolved by id,
// serialized through the agent's mailbox (spec.md §6 "POST
// /npc/action").
func (c *Container) Cognize(ctx context.Context, id agent.ID, playerID, utterance string) (brain.Outcome, error) {
	agentState, ok := c.Agents.Agent(id)
	if !ok {
		return brain.Outcome{}, apperr.New(apperr.AgentUnknown, fmt.Sprintf("agent %d not found", id))
	}

	var outcome brain.Outcome
	var enemies brain.EnemyLookup = c.Factions
	err := c.Agents.Submit(ctx, id, func(a *agent.Agent) {
		outcome = c.Brain.Cognize(ctx, a, playerID, utterance, enemies)
		touchInteraction(a, time.Now())
	})
	if err != nil {
		return brain.Outcome{}, err
	}
	_ = agentState
	return outcome, nil
}
