package faction

import (
	"testing"

	"github.com/talgya/npcforge/internal/entropy"
)

func TestRelationLabelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.9, "allied"},
		{0.3, "friendly"},
		{0.0, "neutral"},
		{-0.3, "tense"},
		{-0.9, "hostile"},
	}
	for _, c := range cases {
		if got := LabelFor(c.score); got != c.want {
			t.Errorf("LabelFor(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestApplyEventMutatesBothFactionsSymmetrically(t *testing.T) {
	e := NewEngine(entropy.NewSource(1))
	a := NewFaction(1, "Crown", nil)
	b := NewFaction(2, "Compact", nil)
	e.AddFaction(a)
	e.AddFaction(b)

	e.ApplyEvent(EventBetrayal, 1, 2)

	ra := a.RelationWith(2)
	rb := b.RelationWith(1)
	if ra.Score != rb.Score {
		t.Fatalf("betrayal event applied asymmetrically: a->b=%v b->a=%v", ra.Score, rb.Score)
	}
	if ra.Score >= 0 {
		t.Fatalf("betrayal should worsen relations, got %v", ra.Score)
	}
}

func TestBattleResolvesWhenRatioCrossed(t *testing.T) {
	e := NewEngine(entropy.NewSource(1))
	e.AddTerritory(&Territory{ID: "t1", ControllingFaction: 2})
	e.StartBattle(&Battle{ID: "b1", Territory: "t1", Attacker: 1, Defender: 2, AttackerStr: 10, DefenderStr: 1})

	e.Tick(0, -1, nil, nil)

	terr, _ := e.Territory("t1")
	if terr.ControllingFaction != 1 {
		t.Fatalf("attacker should have taken the territory, got controller=%v", terr.ControllingFaction)
	}
}

func TestBattleStaysInProgressWhenEvenlyMatched(t *testing.T) {
	e := NewEngine(entropy.NewSource(1))
	e.AddTerritory(&Territory{ID: "t1", ControllingFaction: 2})
	e.StartBattle(&Battle{ID: "b1", Territory: "t1", Attacker: 1, Defender: 2, AttackerStr: 5, DefenderStr: 5})

	e.Tick(0, -1, nil, nil)

	terr, _ := e.Territory("t1")
	if terr.ControllingFaction != 2 {
		t.Fatalf("evenly matched battle should not resolve yet, controller changed to %v", terr.ControllingFaction)
	}
}

func TestRelationDriftHalvesAfterHalfLife(t *testing.T) {
	e := NewEngine(entropy.NewSource(1))
	a := NewFaction(1, "Crown", nil)
	b := NewFaction(2, "Compact", nil)
	e.AddFaction(a)
	e.AddFaction(b)
	a.SetRelation(2, 0.8)

	e.Tick(RelationHalfLifeHours, -1, nil, nil)

	got := a.RelationWith(2).Score
	if got < 0.39 || got > 0.41 {
		t.Fatalf("relation after one half-life = %v, want ~0.4", got)
	}
}

func TestEnemiesOfReturnsHostileFactions(t *testing.T) {
	e := NewEngine(entropy.NewSource(1))
	a := NewFaction(1, "Crown", nil)
	e.AddFaction(a)
	a.SetRelation(2, -0.9)
	a.SetRelation(3, 0.5)

	enemies := e.EnemiesOf(1)
	if len(enemies) != 1 || enemies[0] != 2 {
		t.Fatalf("EnemiesOf(1) = %v, want [2]", enemies)
	}
}

func TestSuccessfulTradeRouteCreditsBothEndpoints(t *testing.T) {
	e := NewEngine(entropy.NewSource(1))
	a := NewFaction(1, "Crown", nil)
	b := NewFaction(2, "Compact", nil)
	e.AddFaction(a)
	e.AddFaction(b)
	e.AddRoute(&TradeRoute{ID: "r1", From: "1", To: "2", ProfitMargin: 0.25, RiskLevel: 0, Status: RouteActive})

	e.Tick(0, 1, nil, nil)

	if a.Resources != 0.25 {
		t.Fatalf("from-faction Resources = %v, want 0.25", a.Resources)
	}
	if b.Resources != 0.25 {
		t.Fatalf("to-faction Resources = %v, want 0.25", b.Resources)
	}
	route, _ := e.Route("r1")
	if route.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", route.TotalTrades)
	}
}

func TestTradeRouteEndpointNotAFactionIsSkipped(t *testing.T) {
	e := NewEngine(entropy.NewSource(1))
	e.AddRoute(&TradeRoute{ID: "r1", From: "settlement-a", To: "settlement-b", ProfitMargin: 0.5, RiskLevel: 0, Status: RouteActive})

	// Must not panic despite neither endpoint resolving to a tracked faction.
	e.Tick(0, 1, nil, nil)

	route, _ := e.Route("r1")
	if route.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", route.TotalTrades)
	}
}
