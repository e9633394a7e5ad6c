package proximity

import (
	"testing"

	"github.com/talgya/npcforge/internal/agent"
)

func TestNearbyFindsWithinRadiusSameZone(t *testing.T) {
	idx := NewIndex(10)
	idx.Update(1, agent.Location{Zone: "market", X: 0, Y: 0, Z: 0})
	idx.Update(2, agent.Location{Zone: "market", X: 3, Y: 0, Z: 0})
	idx.Update(3, agent.Location{Zone: "market", X: 50, Y: 0, Z: 0})
	idx.Update(4, agent.Location{Zone: "forest", X: 1, Y: 0, Z: 0})

	got := idx.Nearby(agent.Location{Zone: "market", X: 0, Y: 0, Z: 0}, 5, 1)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("Nearby = %v, want [2]", got)
	}
}

func TestExcludesSelf(t *testing.T) {
	idx := NewIndex(10)
	idx.Update(1, agent.Location{Zone: "market", X: 0, Y: 0, Z: 0})

	got := idx.Nearby(agent.Location{Zone: "market", X: 0, Y: 0, Z: 0}, 5, 1)
	if len(got) != 0 {
		t.Fatalf("Nearby should exclude the querying agent, got %v", got)
	}
}

func TestAgentsWithoutLocationExcluded(t *testing.T) {
	idx := NewIndex(10)
	idx.Update(1, agent.Location{Zone: "market", X: 0, Y: 0, Z: 0})
	idx.Remove(1)

	got := idx.Nearby(agent.Location{Zone: "market", X: 0, Y: 0, Z: 0}, 50, 0)
	if len(got) != 0 {
		t.Fatalf("removed agent should be excluded, got %v", got)
	}
}

func TestUpdateMovesAgentBetweenCells(t *testing.T) {
	idx := NewIndex(10)
	idx.Update(1, agent.Location{Zone: "market", X: 0, Y: 0, Z: 0})
	idx.Update(1, agent.Location{Zone: "market", X: 100, Y: 100, Z: 0})

	nearOld := idx.Nearby(agent.Location{Zone: "market", X: 0, Y: 0, Z: 0}, 5, 0)
	if len(nearOld) != 0 {
		t.Fatalf("agent should have moved away from old cell, got %v", nearOld)
	}
	nearNew := idx.Nearby(agent.Location{Zone: "market", X: 100, Y: 100, Z: 0}, 5, 0)
	if len(nearNew) != 1 {
		t.Fatalf("agent should be found at new position, got %v", nearNew)
	}
}

func TestHasPlayerNearbyReflectsZoneOccupancy(t *testing.T) {
	idx := NewIndex(10)
	if idx.HasPlayerNearby("market") {
		t.Fatalf("empty zone should report no occupants")
	}
	idx.Update(1, agent.Location{Zone: "market", X: 0, Y: 0, Z: 0})
	if !idx.HasPlayerNearby("market") {
		t.Fatalf("occupied zone should report occupants")
	}
}
