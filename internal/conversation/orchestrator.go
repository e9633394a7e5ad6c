package conversation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/brain"
	"github.com/talgya/npcforge/internal/oracle"
	"github.com/talgya/npcforge/internal/proximity"
)

// MaxSpeakersPerMessage bounds how many participants get a turn per
// incoming message, so a crowded group doesn't produce an unbounded
// reply burst (spec.md §4.10 leaves the cap unspecified; chosen to
// match the "handful of participants speak, not all" framing of the
// scenario walkthroughs in spec.md §8).
const MaxSpeakersPerMessage = 4

// TensionGain and TensionDecay implement spec.md §4.10 step 4:
//
//	tension <- clamp(tension + TensionGain*|disagreement+interruption|
//	                          - TensionDecay*|agreement|)
const (
	TensionGain  = 0.15
	TensionDecay = 0.05
)

// AgentLookup resolves a participant id to its live agent state.
// Implemented by whatever registry owns *agent.Agent values app-wide.
type AgentLookup interface {
	Agent(id agent.ID) (*agent.Agent, bool)
}

// ProximityLookup is satisfied by internal/proximity.Index, used to
// auto-discover nearby NPCs when Start is called without an explicit
// participant list.
type ProximityLookup interface {
	Nearby(loc agent.Location, radius float64, exclude agent.ID) []agent.ID
}

// Orchestrator implements GroupOrchestrator (spec.md §4.10): it owns
// every live conversation Group, ranks participants by salience for
// each incoming message, drives one Oracle.Cognize call per speaker in
// that order (each seeing prior speakers' lines), and applies the
// standard Brain effect sequence per speaker before returning.
type Orchestrator struct {
	registry    *Registry
	agents      AgentLookup
	proximity   ProximityLookup
	familiarity FamiliarityLookup
	interest    InterestFunc
	oracle      *oracle.Oracle
	brain       *brain.Brain
	enemies     brain.EnemyLookup
	nextID      func() string
}

// Config wires an Orchestrator's collaborators.
type Config struct {
	Agents      AgentLookup
	Proximity   ProximityLookup
	Familiarity FamiliarityLookup
	Interest    InterestFunc // optional; nil scores every topic 0
	Oracle      *oracle.Oracle
	Brain       *brain.Brain
	Enemies     brain.EnemyLookup
	IDFunc      func() string // group id generator; required
}

// New constructs an Orchestrator with an empty group registry.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		registry:    newRegistry(),
		agents:      cfg.Agents,
		proximity:   cfg.Proximity,
		familiarity: cfg.Familiarity,
		interest:    cfg.Interest,
		oracle:      cfg.Oracle,
		brain:       cfg.Brain,
		enemies:     cfg.Enemies,
		nextID:      cfg.IDFunc,
	}
}

// Start opens a new conversation group. When npcIDs is empty, nearby
// NPCs are discovered via Proximity instead. A group MUST have at
// least one NPC (spec.md §4.10 invariant); Start returns an error
// otherwise.
func (o *Orchestrator) Start(playerID string, npcIDs []agent.ID, loc agent.Location, now time.Time) (*Group, error) {
	participants := npcIDs
	if len(participants) == 0 && o.proximity != nil {
		participants = o.proximity.Nearby(loc, proximity.DefaultNearbyRadius, 0)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("conversation: a group requires at least one NPC")
	}

	id := o.nextID()
	g := newGroup(id, playerID, loc, participants, now)

	o.registry.mu.Lock()
	o.registry.groups[id] = g
	o.registry.mu.Unlock()

	return g, nil
}

// Get returns a live group by id.
func (o *Orchestrator) Get(groupID string) (*Group, bool) {
	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()
	g, ok := o.registry.groups[groupID]
	return g, ok
}

// AddAgent enrolls a new participant into a live group.
func (o *Orchestrator) AddAgent(groupID string, id agent.ID) error {
	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()
	g, ok := o.registry.groups[groupID]
	if !ok || g.Ended {
		return fmt.Errorf("conversation: group %s not found", groupID)
	}
	if !g.hasParticipant(id) {
		g.Participants = append(g.Participants, id)
	}
	return nil
}

// RemoveAgent drops a participant from a live group.
func (o *Orchestrator) RemoveAgent(groupID string, id agent.ID) error {
	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()
	g, ok := o.registry.groups[groupID]
	if !ok || g.Ended {
		return fmt.Errorf("conversation: group %s not found", groupID)
	}
	kept := g.Participants[:0]
	for _, p := range g.Participants {
		if p != id {
			kept = append(kept, p)
		}
	}
	g.Participants = kept
	delete(g.lastSpokeTick, id)
	return nil
}

// End finalizes a group; further Message calls on it fail.
func (o *Orchestrator) End(groupID string) {
	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()
	if g, ok := o.registry.groups[groupID]; ok {
		g.Ended = true
	}
}

// ActiveGroupCount reports how many groups are currently open, for
// daily stats-history snapshots (spec.md §4.1 stats aggregates).
func (o *Orchestrator) ActiveGroupCount() int {
	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()
	n := 0
	for _, g := range o.registry.groups {
		if !g.Ended {
			n++
		}
	}
	return n
}

// ExpireIdle ends every group whose LastActiveAt is older than
// GroupIdleTimeout, returning the ids it closed. It runs only when
// called; no stage of the world tick calls it, so idle groups stay
// open until End or an explicit ExpireIdle call.
func (o *Orchestrator) ExpireIdle(now time.Time) []string {
	o.registry.mu.Lock()
	defer o.registry.mu.Unlock()

	var expired []string
	for id, g := range o.registry.groups {
		if !g.Ended && now.Sub(g.LastActiveAt) >= GroupIdleTimeout {
			g.Ended = true
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// candidate is a participant ranked for this message.
type candidate struct {
	id    agent.ID
	a     *agent.Agent
	score float64
}

// Message delivers an utterance to a group: participants are ranked
// by salience, the top MaxSpeakersPerMessage are each given a turn (in
// salience order, each seeing prior speakers' lines), Brain's standard
// per-agent effects are applied to every non-silent speaker, and the
// group's tension is updated. Returned turns are already validated:
// each speaker appears at most once, and unknown speakers never
// appear since turns are generated only for known participants.
func (o *Orchestrator) Message(ctx context.Context, groupID, text string, target *agent.ID, now time.Time) ([]Turn, error) {
	o.registry.mu.Lock()
	g, ok := o.registry.groups[groupID]
	o.registry.mu.Unlock()
	if !ok || g.Ended {
		return nil, fmt.Errorf("conversation: group %s not found", groupID)
	}

	g.tick++
	ranked := o.rankParticipants(g, text)
	if len(ranked) > MaxSpeakersPerMessage {
		ranked = ranked[:MaxSpeakersPerMessage]
	}

	seen := make(map[agent.ID]bool, len(ranked))
	var turns []Turn
	var transcript []string
	var agreementMag, disagreeInterruptMag float64

	for _, c := range ranked {
		if seen[c.id] || !g.hasParticipant(c.id) {
			continue // safety: never speak twice, never an unknown participant
		}
		seen[c.id] = true

		prompt := o.buildPrompt(c.a, g.PlayerID, text, transcript)
		frame := o.oracle.Cognize(ctx, prompt)

		rt := classifyResponse(frame)
		if rt == ResponseSilent {
			g.lastSpokeTick[c.id] = g.tick
			continue
		}

		addressed := g.PlayerID
		if target != nil {
			addressed = fmt.Sprintf("%d", *target)
		}
		turn := Turn{
			Speaker:      c.id,
			ResponseType: rt,
			AddressedTo:  addressed,
			Dialogue:     frame.Dialogue,
		}
		turns = append(turns, turn)
		transcript = append(transcript, fmt.Sprintf("agent-%d: %s", c.id, frame.Dialogue))
		g.lastSpokeTick[c.id] = g.tick

		if o.brain != nil {
			o.brain.ApplyFrame(c.a, g.PlayerID, frame, o.enemies)
		}

		switch rt {
		case ResponseAgreement:
			agreementMag += 1
		case ResponseDisagreement, ResponseInterruption:
			disagreeInterruptMag += 1
		}
	}

	g.Tension = clampUnit(g.Tension + TensionGain*disagreeInterruptMag - TensionDecay*agreementMag)
	g.LastActiveAt = now

	return turns, nil
}

func (o *Orchestrator) rankParticipants(g *Group, topic string) []candidate {
	var out []candidate
	for _, id := range g.Participants {
		var a *agent.Agent
		if o.agents != nil {
			var ok bool
			a, ok = o.agents.Agent(id)
			if !ok {
				continue
			}
		}
		if a == nil {
			continue
		}
		ticksSince := g.tick - g.lastSpokeTick[id]
		if _, spoke := g.lastSpokeTick[id]; !spoke {
			ticksSince = 99
		}
		score := salienceScore(a, g.PlayerID, topic, g.Tension, ticksSince, o.familiarity, o.interest)
		out = append(out, candidate{id: id, a: a, score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func (o *Orchestrator) buildPrompt(a *agent.Agent, playerID, utterance string, transcript []string) oracle.Prompt {
	u := utterance
	if len(transcript) > 0 {
		u = fmt.Sprintf("%s\n\nSo far in this conversation:\n%s", utterance, strings.Join(transcript, "\n"))
	}
	return oracle.Prompt{
		AgentName:  fmt.Sprintf("agent-%d", a.ID),
		MoodLabel:  a.Mood.Label,
		PlayerName: playerID,
		Utterance:  u,
	}
}

// classifyResponse maps a CognitiveFrame onto a group ResponseType.
// The frame has no response_type field of its own (it was designed
// for single-agent Cognize calls), so the mapping reuses fields it
// already carries: a fallback frame or an empty or "..." dialogue reads
// as silence, a trustDelta of at least ±0.05 reads as
// agreement/disagreement, an urgency at or above
// brain.UrgentEventThreshold reads as an interruption, and everything
// else defaults to elaboration.
func classifyResponse(f oracle.CognitiveFrame) ResponseType {
	if f.Fallback || f.Dialogue == "" || f.Dialogue == "..." {
		return ResponseSilent
	}
	switch {
	case f.TrustDelta <= -0.05:
		return ResponseDisagreement
	case f.TrustDelta >= 0.05:
		return ResponseAgreement
	case f.Urgency >= brain.UrgentEventThreshold:
		return ResponseInterruption
	default:
		return ResponseElaboration
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
