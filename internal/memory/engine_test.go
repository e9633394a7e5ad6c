package memory

import (
	"testing"

	"github.com/talgya/npcforge/internal/agent"
)

func TestInsertFirsthand(t *testing.T) {
	e := NewEngine(nil)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	m := e.Insert("m1", agent.ID(1), subj, CategoryEvent, "saw a fire in the market", 0.6)

	if !m.IsFirsthand() {
		t.Fatalf("newly inserted memory should be firsthand")
	}
	if m.Strength != 1.0 {
		t.Fatalf("new memory strength = %v, want 1.0", m.Strength)
	}
	got, ok := e.Get("m1")
	if !ok || got.Content != "saw a fire in the market" {
		t.Fatalf("Get did not return inserted memory")
	}
}

func TestDecaySweepBatchesStore(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(store)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	e.Insert("m1", agent.ID(1), subj, CategoryEvent, "one", 0.1)
	e.Insert("m2", agent.ID(1), subj, CategoryEvent, "two", 0.9)

	e.DecaySweep(24)

	if store.bulkUpdateCalls != 1 {
		t.Fatalf("DecaySweep issued %d BulkUpdateStrength calls, want exactly 1", store.bulkUpdateCalls)
	}
	m1, _ := e.Get("m1")
	m2, _ := e.Get("m2")
	if m1.Strength >= 1.0 {
		t.Fatalf("low-weight memory should have decayed, got %v", m1.Strength)
	}
	if m2.Strength <= m1.Strength {
		t.Fatalf("high emotional weight memory should decay slower: m1=%v m2=%v", m1.Strength, m2.Strength)
	}
}

func TestForgottenExcludedFromRetrieval(t *testing.T) {
	e := NewEngine(nil)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	m := e.Insert("m1", agent.ID(1), subj, CategoryEvent, "faded memory", 0.0)
	m.Strength = 0.01 // below ForgottenThreshold

	results := e.Retrieve(agent.ID(1), subj, 10)
	if len(results) != 0 {
		t.Fatalf("forgotten memory returned by Retrieve: %+v", results)
	}
}

func TestCleanupSweepDeletesBelowThreshold(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(store)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	m := e.Insert("m1", agent.ID(1), subj, CategoryEvent, "dying memory", 0.0)
	m.Strength = 0.005

	removed := e.CleanupSweep()
	if removed != 1 {
		t.Fatalf("CleanupSweep removed %d, want 1", removed)
	}
	if _, ok := e.Get("m1"); ok {
		t.Fatalf("deleted memory still present")
	}
	if store.deleteBelowCalls != 1 {
		t.Fatalf("CleanupSweep issued %d DeleteBelow calls, want 1", store.deleteBelowCalls)
	}
}

func TestReinforceIncreasesStrengthAndRefCount(t *testing.T) {
	e := NewEngine(nil)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	m := e.Insert("m1", agent.ID(1), subj, CategoryEvent, "memorable", 0.2)
	m.Strength = 0.5

	e.Reinforce("m1")

	got, _ := e.Get("m1")
	if got.Strength <= 0.5 {
		t.Fatalf("reinforce did not increase strength: %v", got.Strength)
	}
	if got.RefCount != 1 {
		t.Fatalf("RefCount = %d, want 1", got.RefCount)
	}
}

func TestRetrieveOrdersByScoreAndReinforces(t *testing.T) {
	e := NewEngine(nil)
	subj := Subject{Kind: SubjectPlayer, ID: "p1"}
	low := e.Insert("low", agent.ID(1), subj, CategoryEvent, "mundane", 0.0)
	low.Strength = 0.3
	high := e.Insert("high", agent.ID(1), subj, CategoryEvent, "vivid", 0.9)
	high.Strength = 0.3

	results := e.Retrieve(agent.ID(1), subj, 10)
	if len(results) != 2 || results[0].ID != "high" {
		t.Fatalf("expected high-emotional-weight memory ranked first, got %+v", results)
	}

	got, _ := e.Get("high")
	if got.RefCount != 1 {
		t.Fatalf("retrieval should reinforce returned memories, RefCount=%d", got.RefCount)
	}
}

type fakeStore struct {
	bulkUpdateCalls  int
	deleteBelowCalls int
}

func (f *fakeStore) InsertMemory(m Memory) error { return nil }
func (f *fakeStore) QueryMemories(owner agent.ID, subject *Subject, minStrength float64, limit int) ([]Memory, error) {
	return nil, nil
}
func (f *fakeStore) BulkUpdateStrength(updates []StrengthUpdate) error {
	f.bulkUpdateCalls++
	return nil
}
func (f *fakeStore) DeleteBelow(threshold float64) error {
	f.deleteBelowCalls++
	return nil
}
