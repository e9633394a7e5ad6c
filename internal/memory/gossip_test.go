package memory

import (
	"testing"

	"github.com/talgya/npcforge/internal/agent"
)

func TestShareCapsStrengthAndMarksSource(t *testing.T) {
	e := NewEngine(nil)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	from, to := agent.ID(1), agent.ID(2)

	m := e.Insert("m1", from, subj, CategorySecret, "saw them steal bread", 0.5)
	m.Strength = 0.8

	shared := e.Share(from, to, subj, 0.5, 1)
	if len(shared) != 1 {
		t.Fatalf("expected 1 shared memory, got %d", len(shared))
	}

	got := shared[0]
	wantMax := 0.8 * 0.5 * ShareDiscount
	if got.Strength > wantMax+1e-9 {
		t.Fatalf("shared strength %v exceeds cap %v", got.Strength, wantMax)
	}
	if got.IsFirsthand() {
		t.Fatalf("shared memory must be secondhand")
	}
	if got.Source == nil || *got.Source != from {
		t.Fatalf("shared memory source = %v, want %v", got.Source, from)
	}
}

func TestShareNeverUpgradesToFirsthand(t *testing.T) {
	e := NewEngine(nil)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	from, to := agent.ID(1), agent.ID(2)

	m := e.Insert("m1", from, subj, CategorySecret, "rumor content", 0.4)
	m.Strength = 0.9

	shared := e.Share(from, to, subj, 1.0, 1)
	e.Share(from, to, subj, 1.0, 1)

	for _, sm := range shared {
		got, ok := e.Get(sm.ID)
		if !ok {
			t.Fatalf("shared memory missing")
		}
		if got.IsFirsthand() {
			t.Fatalf("repeated sharing upgraded memory to firsthand")
		}
	}
}

func TestShareTopMLimitsCandidates(t *testing.T) {
	e := NewEngine(nil)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	from, to := agent.ID(1), agent.ID(2)

	for i := 0; i < 5; i++ {
		e.Insert(idFor(i), from, subj, CategoryEvent, "memory", 0.1)
	}

	shared := e.Share(from, to, subj, 1.0, 2)
	if len(shared) != 2 {
		t.Fatalf("Share with topM=2 returned %d memories, want 2", len(shared))
	}
}

func TestRumorSpreadSetAndDecay(t *testing.T) {
	e := NewEngine(nil)
	about := Subject{Kind: SubjectPlayer, ID: "p1"}
	creator := agent.ID(1)

	e.InsertRumor("r1", about, "the stranger is a spy", creator)
	if ok := e.SpreadRumor("r1", agent.ID(2)); !ok {
		t.Fatalf("expected rumor spread to succeed")
	}
	if ok := e.SpreadRumor("r1", agent.ID(2)); ok {
		t.Fatalf("expected repeated spread to the same agent to be a no-op")
	}

	heard := e.RumorsAbout(agent.ID(2), about, 10)
	if len(heard) != 1 {
		t.Fatalf("agent 2 should have heard the rumor, got %d", len(heard))
	}

	e.DecayRumors(1000)
	heard = e.RumorsAbout(agent.ID(2), about, 10)
	if len(heard) != 0 {
		t.Fatalf("rumor should have decayed below forgotten threshold")
	}
}

func idFor(i int) string {
	return "m" + string(rune('a'+i))
}
