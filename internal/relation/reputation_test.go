package relation

import "testing"

type fakeEnemies struct {
	enemies map[uint64][]uint64
}

func (f *fakeEnemies) EnemiesOf(factionID uint64) []uint64 {
	return f.enemies[factionID]
}

func TestApplyFactionDeltaRipplesToEnemies(t *testing.T) {
	b := NewReputationBook()
	lookup := &fakeEnemies{enemies: map[uint64][]uint64{10: {20}}}

	b.ApplyFactionDelta("p1", 10, 0.4, lookup)

	if got := b.FactionRep("p1", 10); got != 0.4 {
		t.Fatalf("FactionRep(p1,10) = %v, want 0.4", got)
	}
	want := -RippleDamping * 0.4
	if got := b.FactionRep("p1", 20); got != want {
		t.Fatalf("FactionRep(p1,20) = %v, want %v (rippled)", got, want)
	}
}

func TestReputationStaysWithinBounds(t *testing.T) {
	b := NewReputationBook()
	for i := 0; i < 10; i++ {
		b.ApplyAgentDelta("p1", 1, 0.9)
	}
	got := b.AgentRep("p1", 1)
	if got > 1 || got < -1 {
		t.Fatalf("AgentRep out of bounds: %v", got)
	}
	for i := 0; i < 10; i++ {
		b.ApplyAgentDelta("p1", 1, -0.9)
	}
	got = b.AgentRep("p1", 1)
	if got > 1 || got < -1 {
		t.Fatalf("AgentRep out of bounds after negative deltas: %v", got)
	}
}
