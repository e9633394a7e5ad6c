package brain

import (
	"context"
	"testing"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/memory"
	"github.com/talgya/npcforge/internal/oracle"
	"github.com/talgya/npcforge/internal/relation"
)

type fakeEvents struct {
	events []string
}

func (f *fakeEvents) AppendEvent(kind, description string, meta map[string]any) {
	f.events = append(f.events, kind)
}

type fakeEnemies struct{}

func (fakeEnemies) EnemiesOf(factionID uint64) []uint64 { return nil }

func TestCognizeFallbackStillSucceedsWithNoEffects(t *testing.T) {
	a := agent.New(1, "guard", agent.Personality{})
	mem := memory.NewEngine(nil)
	rep := relation.NewReputationBook()
	events := &fakeEvents{}

	b := New(oracle.New(nil), mem, rep, events)
	outcome := b.Cognize(context.Background(), a, "player1", "hello", fakeEnemies{})

	if !outcome.Fallback {
		t.Fatalf("expected fallback outcome without a configured oracle")
	}
	if got := rep.AgentRep("player1", 1); got != 0 {
		t.Fatalf("fallback trustDelta should leave reputation unchanged, got %v", got)
	}
}

func TestCognizeAppliesUrgentEvent(t *testing.T) {
	a := agent.New(1, "guard", agent.Personality{})
	mem := memory.NewEngine(nil)
	rep := relation.NewReputationBook()
	events := &fakeEvents{}

	b := &Brain{oracle: oracle.New(nil), mem: mem, rep: rep, events: events}
	frame := oracle.CognitiveFrame{
		Dialogue: "Halt!",
		Intent:   oracle.IntentGuard,
		Urgency:  0.9,
	}
	b.applyEffects(a, "player1", frame, fakeEnemies{})

	if len(events.events) != 1 {
		t.Fatalf("expected one urgent event emitted, got %d", len(events.events))
	}
}

func TestCognizeInsertsMemoriesFromExtractedTopics(t *testing.T) {
	a := agent.New(1, "guard", agent.Personality{})
	mem := memory.NewEngine(nil)
	rep := relation.NewReputationBook()

	b := &Brain{oracle: oracle.New(nil), mem: mem, rep: rep}
	frame := oracle.CognitiveFrame{
		Dialogue:        "Interesting.",
		Intent:          oracle.IntentSocialize,
		TrustDelta:      0.1,
		EmotionalWeight: 0.5,
		ExtractedTopics: []string{"mentioned a hidden cellar"},
	}
	b.applyEffects(a, "player1", frame, fakeEnemies{})

	results := mem.RetrieveAny(a.ID, 10)
	if len(results) != 1 || results[0].Content != "mentioned a hidden cellar" {
		t.Fatalf("expected extracted topic inserted as memory, got %+v", results)
	}
	if got := rep.AgentRep("player1", 1); got != 0.1 {
		t.Fatalf("reputation should reflect trustDelta, got %v", got)
	}
}

func TestFactionRippleAppliedWhenAgentHasFaction(t *testing.T) {
	a := agent.New(1, "guard", agent.Personality{})
	factionID := uint64(7)
	a.FactionID = &factionID
	mem := memory.NewEngine(nil)
	rep := relation.NewReputationBook()

	b := &Brain{oracle: oracle.New(nil), mem: mem, rep: rep}
	frame := oracle.CognitiveFrame{Dialogue: "...", Intent: oracle.IntentIgnore, TrustDelta: 0.2}
	b.applyEffects(a, "player1", frame, fakeEnemies{})

	want := FactionRippleFactor * 0.2
	if got := rep.FactionRep("player1", 7); got != want {
		t.Fatalf("faction rep = %v, want %v", got, want)
	}
}
