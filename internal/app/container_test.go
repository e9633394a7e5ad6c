package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/npcforge/internal/agent"
)

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "npcforge.db")
	cfg.AnthropicKey = "" // no live Oracle in tests; every call falls back
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewWiresEveryComponent(t *testing.T) {
	c := newTestContainer(t)

	if c.DB == nil || c.Cache == nil || c.Agents == nil || c.Memory == nil ||
		c.Relation == nil || c.Reputation == nil || c.Oracle == nil || c.Brain == nil ||
		c.Proximity == nil || c.Factions == nil || c.Quests == nil ||
		c.Conversation == nil || c.Clock == nil || c.Tiering == nil {
		t.Fatal("New left a component nil")
	}
}

func TestCreateAndCognizeWithoutLiveOracle(t *testing.T) {
	c := newTestContainer(t)

	a := c.Agents.Create(agent.Role("guard"), agent.Personality{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	if a.ID == 0 {
		t.Fatal("Create returned zero id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := c.Cognize(ctx, a.ID, "player-1", "hello there")
	if err != nil {
		t.Fatalf("Cognize: %v", err)
	}
	if outcome.Frame.Dialogue == "" {
		t.Error("expected a fallback dialogue line with no live Oracle configured")
	}

	got, ok := c.Agents.Agent(a.ID)
	if !ok {
		t.Fatal("agent vanished from registry")
	}
	if got.LastInteractionAt.IsZero() {
		t.Error("Cognize should stamp LastInteractionAt")
	}
}

func TestCognizeUnknownAgent(t *testing.T) {
	c := newTestContainer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Cognize(ctx, agent.ID(999), "player-1", "hi"); err == nil {
		t.Fatal("expected an error for an unknown agent id")
	}
}

func TestForceFactionTickRunsWithoutPanicking(t *testing.T) {
	c := newTestContainer(t)
	// deltaHours=0, simDay=-1 skips relation drift and trade roll, the
	// out-of-cadence battle-resolution shape boundary/faction.go uses.
	events := c.ForceFactionTick(0, -1)
	if events == nil {
		t.Log("no events on an empty faction roster, which is expected")
	}
}

func TestSaveStatsSnapshotNoAgents(t *testing.T) {
	c := newTestContainer(t)
	// Exercised indirectly via WorldClock's OnDay callback; call it
	// directly here to verify it tolerates an empty agent roster.
	c.saveStatsSnapshot(0)

	rows, err := c.DB.LoadStatsHistory(10)
	if err != nil {
		t.Fatalf("LoadStatsHistory: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one snapshot row, got %d", len(rows))
	}
	if rows[0].AgentCount != 0 {
		t.Errorf("expected agent_count 0, got %d", rows[0].AgentCount)
	}
}
