// Package brain implements the double-pass cognition pipeline: context
// assembly, an Oracle.Cognize call, validation, and effect application
// in a fixed commit order (spec.md §4.6).
//
// Grounded on the teacher's internal/llm/cognition.go
// (GenerateTier2Decision's context-build -> call -> parse -> apply
// shape), generalized from the teacher's weekly batch decisions into a
// single-interaction pipeline against spec.md's CognitiveFrame.
package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/memory"
	"github.com/talgya/npcforge/internal/oracle"
	"github.com/talgya/npcforge/internal/relation"
)

// UrgentEventThreshold is the urgency level at or above which Brain
// emits a world event (spec.md §4.6 effect (e)).
const UrgentEventThreshold = 0.85

// FactionRippleFactor scales how much a trust delta toward an agent
// ripples into reputation with the agent's faction (spec.md §4.6
// effect (d): "ripple ... by 0.25*trustDelta").
const FactionRippleFactor = 0.25

// EnemyLookup is satisfied by internal/faction.Engine.
type EnemyLookup = relation.EnemyLookup

// EventSink receives world events Brain emits for urgent interactions.
// Implemented by internal/worldclock's event log.
type EventSink interface {
	AppendEvent(kind, description string, meta map[string]any)
}

// Brain runs the cognition pipeline for one agent against one
// player utterance at a time (serialized through the agent's mailbox
// by the caller — Brain itself holds no per-agent lock).
type Brain struct {
	oracle *oracle.Oracle
	mem    *memory.Engine
	rep    *relation.ReputationBook
	events EventSink
}

// New creates a Brain wired to its collaborators.
func New(o *oracle.Oracle, mem *memory.Engine, rep *relation.ReputationBook, events EventSink) *Brain {
	return &Brain{oracle: o, mem: mem, rep: rep, events: events}
}

// Outcome is Brain.Cognize's result: either a validated frame from a
// live Oracle call or a fallback, distinguished so callers (e.g. the
// boundary layer) can log outage conditions without treating them as
// request failures (spec.md §4.6 Design Notes: "CognizeOutcome = Ok |
// Fallback").
type Outcome struct {
	Frame    oracle.CognitiveFrame
	Fallback bool
}

// Cognize runs the full pipeline: assembles context from memory and
// reputation, calls Oracle, validates the result, and applies every
// effect before returning (spec.md §4.6 ordering guarantee: "all
// effects for a single interaction commit before the response is
// returned").
func (b *Brain) Cognize(ctx context.Context, a *agent.Agent, playerID, utterance string, factionEnemies EnemyLookup) Outcome {
	subject := memory.Subject{Kind: memory.SubjectPlayer, ID: playerID}

	var memStrs, rumorStrs []string
	var mems []memory.Memory
	if b.mem != nil {
		mems = b.mem.Retrieve(a.ID, subject, memory.DefaultRetrievalLimit)
		for _, m := range mems {
			memStrs = append(memStrs, m.Content)
		}
		for _, r := range b.mem.RumorsAbout(a.ID, subject, 4) {
			rumorStrs = append(rumorStrs, r.Content)
		}
	}

	var goalStrs []string
	for _, g := range a.ActiveGoals() {
		goalStrs = append(goalStrs, g.Kind)
	}

	prompt := oracle.Prompt{
		AgentName:  fmt.Sprintf("agent-%d", a.ID),
		MoodLabel:  a.Mood.Label,
		Vitals:     vitalsDescription(a.Vitals),
		PlayerName: playerID,
		Utterance:  utterance,
		Memories:   memStrs,
		Rumors:     rumorStrs,
		Goals:      goalStrs,
	}

	frame := b.oracle.Cognize(ctx, prompt)
	b.applyEffects(a, playerID, frame, factionEnemies)

	return Outcome{Frame: frame, Fallback: frame.Fallback}
}

// ApplyFrame runs the same (a)-(e) effect sequence as Cognize against
// an already-produced frame, without calling Oracle again. Used by
// internal/conversation, where the group-level Oracle call already
// produced each speaker's frame and GroupOrchestrator applies "standard
// per-agent Brain effects" per spec.md §4.10 step 3.
func (b *Brain) ApplyFrame(a *agent.Agent, playerID string, frame oracle.CognitiveFrame, enemies EnemyLookup) {
	b.applyEffects(a, playerID, frame, enemies)
}

// applyEffects performs spec.md §4.6 step 3 (a)-(e) in order. On a
// fallback frame, trustDelta is 0 so (c)/(d) are no-ops, and
// extractedTopics is empty so (b)'s topic insertion is a no-op too —
// the pipeline never special-cases fallback beyond what the frame's
// own zero values already produce (spec.md §4.6 Failure clause).
func (b *Brain) applyEffects(a *agent.Agent, playerID string, frame oracle.CognitiveFrame, enemies EnemyLookup) {
	// (a) AgentState.applyAction. moodShift drives arousal; trustDelta
	// doubles as the valence nudge since a warming trust shift reads as
	// a more positive moment and vice versa.
	a.ApplyAction(frame.MoodShift, frame.TrustDelta, "")

	// (b) insert new memories from extracted topics. The cited memories
	// were already reinforced by memory.Engine.Retrieve when Cognize
	// assembled the context.
	if b.mem != nil {
		subject := memory.Subject{Kind: memory.SubjectPlayer, ID: playerID}
		for i, topic := range frame.ExtractedTopics {
			id := fmt.Sprintf("%d-%s-%d", a.ID, playerID, time.Now().UnixNano()+int64(i))
			b.mem.Insert(id, a.ID, subject, memory.CategoryEvent, topic, frame.EmotionalWeight)
		}
	}

	// (c) reputation(player, agent)
	if b.rep != nil {
		b.rep.ApplyAgentDelta(playerID, uint64(a.ID), frame.TrustDelta)

		// (d) ripple into reputation(player, faction) for the agent's faction.
		if a.FactionID != nil {
			b.rep.ApplyFactionDelta(playerID, *a.FactionID, FactionRippleFactor*frame.TrustDelta, enemies)
		}
	}

	// (e) emit a world event on high urgency.
	if frame.Urgency >= UrgentEventThreshold && b.events != nil {
		b.events.AppendEvent("urgent_interaction", fmt.Sprintf("agent-%d reacted urgently to %s", a.ID, playerID), map[string]any{
			"agent_id":  a.ID,
			"player_id": playerID,
			"urgency":   frame.Urgency,
			"intent":    frame.Intent,
		})
	}
}

func vitalsDescription(v agent.Vitals) string {
	switch {
	case v.Hunger > 0.7:
		return "famished"
	case v.Fatigue > 0.7:
		return "exhausted"
	case v.Hunger > 0.4 || v.Fatigue > 0.4:
		return "a little worn"
	default:
		return "well rested"
	}
}
