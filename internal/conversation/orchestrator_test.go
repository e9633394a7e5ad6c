package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/brain"
	"github.com/talgya/npcforge/internal/oracle"
)

type fakeAgents struct {
	byID map[agent.ID]*agent.Agent
}

func (f *fakeAgents) Agent(id agent.ID) (*agent.Agent, bool) {
	a, ok := f.byID[id]
	return a, ok
}

func newTestAgent(id agent.ID) *agent.Agent {
	return agent.New(id, "villager", agent.Personality{})
}

type fakeProximity struct {
	ids []agent.ID
}

func (f *fakeProximity) Nearby(loc agent.Location, radius float64, exclude agent.ID) []agent.ID {
	return f.ids
}

type fakeFamiliarity struct {
	by map[agent.ID]float64
}

func (f *fakeFamiliarity) Familiarity(a, b uint64) float64 {
	return f.by[agent.ID(a)]
}

func newOrchestrator(agents map[agent.ID]*agent.Agent) *Orchestrator {
	counter := 0
	return New(Config{
		Agents:      &fakeAgents{byID: agents},
		Proximity:   &fakeProximity{},
		Familiarity: &fakeFamiliarity{},
		Oracle:      oracle.New(nil), // nil client: every Cognize call falls back
		Brain:       brain.New(oracle.New(nil), nil, nil, nil),
		IDFunc: func() string {
			counter++
			return "group-1"
		},
	})
}

func TestStartRequiresAtLeastOneNPC(t *testing.T) {
	o := newOrchestrator(nil)
	_, err := o.Start("player-1", nil, agent.Location{Zone: "market"}, time.Now())
	if err == nil {
		t.Fatalf("expected error starting a group with no NPCs and no nearby candidates")
	}
}

func TestStartAutoDiscoversNearbyWhenNoExplicitParticipants(t *testing.T) {
	o := newOrchestrator(map[agent.ID]*agent.Agent{1: newTestAgent(1)})
	o.proximity = &fakeProximity{ids: []agent.ID{1}}

	g, err := o.Start("player-1", nil, agent.Location{Zone: "market"}, time.Now())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(g.Participants) != 1 || g.Participants[0] != 1 {
		t.Fatalf("Participants = %v, want [1] from proximity discovery", g.Participants)
	}
}

func TestAddAndRemoveAgent(t *testing.T) {
	o := newOrchestrator(map[agent.ID]*agent.Agent{1: newTestAgent(1)})
	g, _ := o.Start("player-1", []agent.ID{1}, agent.Location{Zone: "market"}, time.Now())

	if err := o.AddAgent(g.ID, 2); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	if !g.hasParticipant(2) {
		t.Fatalf("expected agent 2 added to group")
	}

	if err := o.RemoveAgent(g.ID, 1); err != nil {
		t.Fatalf("RemoveAgent: %v", err)
	}
	if g.hasParticipant(1) {
		t.Fatalf("expected agent 1 removed from group")
	}
}

func TestMessageOnUnknownGroupErrors(t *testing.T) {
	o := newOrchestrator(nil)
	_, err := o.Message(context.Background(), "no-such-group", "hello", nil, time.Now())
	if err == nil {
		t.Fatalf("expected error messaging a nonexistent group")
	}
}

func TestMessageOnEndedGroupErrors(t *testing.T) {
	o := newOrchestrator(map[agent.ID]*agent.Agent{1: newTestAgent(1)})
	g, _ := o.Start("player-1", []agent.ID{1}, agent.Location{Zone: "market"}, time.Now())
	o.End(g.ID)

	_, err := o.Message(context.Background(), g.ID, "hello", nil, time.Now())
	if err == nil {
		t.Fatalf("expected error messaging an ended group")
	}
}

func TestMessageWithFallbackOracleProducesNoTurnsButTracksActivity(t *testing.T) {
	o := newOrchestrator(map[agent.ID]*agent.Agent{1: newTestAgent(1), 2: newTestAgent(2)})
	g, _ := o.Start("player-1", []agent.ID{1, 2}, agent.Location{Zone: "market"}, time.Now())

	now := time.Now()
	turns, err := o.Message(context.Background(), g.ID, "hello there", nil, now)
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("fallback frames are always silent, got %d turns", len(turns))
	}
	if !g.LastActiveAt.Equal(now) {
		t.Fatalf("LastActiveAt not updated")
	}
	if g.lastSpokeTick[1] != g.tick || g.lastSpokeTick[2] != g.tick {
		t.Fatalf("expected both participants tracked as having had a silent turn this tick")
	}
}

func TestExpireIdleClosesStaleGroups(t *testing.T) {
	o := newOrchestrator(map[agent.ID]*agent.Agent{1: newTestAgent(1)})
	g, _ := o.Start("player-1", []agent.ID{1}, agent.Location{Zone: "market"}, time.Now().Add(-GroupIdleTimeout-time.Minute))

	expired := o.ExpireIdle(time.Now())
	if len(expired) != 1 || expired[0] != g.ID {
		t.Fatalf("ExpireIdle = %v, want [%s]", expired, g.ID)
	}
	if !g.Ended {
		t.Fatalf("expected group marked Ended")
	}
}

func TestExpireIdleLeavesActiveGroupsAlone(t *testing.T) {
	o := newOrchestrator(map[agent.ID]*agent.Agent{1: newTestAgent(1)})
	g, _ := o.Start("player-1", []agent.ID{1}, agent.Location{Zone: "market"}, time.Now())

	expired := o.ExpireIdle(time.Now())
	if len(expired) != 0 {
		t.Fatalf("ExpireIdle = %v, want none closed", expired)
	}
	if g.Ended {
		t.Fatalf("active group should not be ended")
	}
}

func TestClassifyResponseMapsFrameToResponseType(t *testing.T) {
	cases := []struct {
		name string
		f    oracle.CognitiveFrame
		want ResponseType
	}{
		{"fallback is silent", oracle.CognitiveFrame{Fallback: true, Dialogue: "hi"}, ResponseSilent},
		{"ellipsis dialogue is silent", oracle.CognitiveFrame{Dialogue: "..."}, ResponseSilent},
		{"negative trust delta disagrees", oracle.CognitiveFrame{Dialogue: "no way", TrustDelta: -0.1}, ResponseDisagreement},
		{"positive trust delta agrees", oracle.CognitiveFrame{Dialogue: "you're right", TrustDelta: 0.1}, ResponseAgreement},
		{"high urgency interrupts", oracle.CognitiveFrame{Dialogue: "watch out!", Urgency: 0.9}, ResponseInterruption},
		{"default elaborates", oracle.CognitiveFrame{Dialogue: "anyway, as I was saying"}, ResponseElaboration},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyResponse(c.f); got != c.want {
				t.Fatalf("classifyResponse(%+v) = %s, want %s", c.f, got, c.want)
			}
		})
	}
}

func TestSalienceScorePenalizesRecentSpeaker(t *testing.T) {
	a := newTestAgent(1)
	fam := &fakeFamiliarity{by: map[agent.ID]float64{1: 0.5}}

	fresh := salienceScore(a, "player-1", "topic", 0, 5, fam, nil)
	recent := salienceScore(a, "player-1", "topic", 0, 1, fam, nil)

	if recent >= fresh {
		t.Fatalf("recently-spoken agent should score lower: recent=%v fresh=%v", recent, fresh)
	}
}

func TestSalienceScoreRisesWithTensionAndParanoia(t *testing.T) {
	calm := newTestAgent(1)
	nervous := newTestAgent(2)
	nervous.Personality[agent.TraitNeuroticism] = agent.TraitMax

	fam := &fakeFamiliarity{}
	calmScore := salienceScore(calm, "player-1", "topic", 1.0, 10, fam, nil)
	nervousScore := salienceScore(nervous, "player-1", "topic", 1.0, 10, fam, nil)

	if nervousScore <= calmScore {
		t.Fatalf("higher-neuroticism agent should score higher under tension: nervous=%v calm=%v", nervousScore, calmScore)
	}
}
