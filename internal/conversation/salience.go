package conversation

import "github.com/talgya/npcforge/internal/agent"

// Salience weights (spec.md §4.10 step 1 formula). Not spec-mandated
// exact values (the spec gives the formula shape, not w1/w2/w3
// magnitudes); chosen so familiarity dominates ranking while tension
// and recency act as secondary nudges.
const (
	WeightInterest          = 0.3
	WeightTensionParanoia   = 0.2
	WeightRecentlySpoke     = 0.4
)

// FamiliarityLookup is satisfied by internal/relation.Store.
type FamiliarityLookup interface {
	Familiarity(a, b uint64) float64
}

// InterestFunc scores how interested an agent is in a topic, [0,1].
// Left pluggable since spec.md does not define topic-interest
// semantics beyond its place in the salience formula.
type InterestFunc func(a *agent.Agent, topic string) float64

// paranoia reads an agent's Neuroticism trait as their paranoia level,
// remapped from the soft-clamped [0.05,0.95] trait range to [0,1]
// (spec.md uses "paranoia(agent)" without defining its source; the
// Neuroticism trait is the closest personality dimension spec.md
// already defines).
func paranoia(a *agent.Agent) float64 {
	v := a.Personality[agent.TraitNeuroticism]
	return (v - agent.TraitMin) / (agent.TraitMax - agent.TraitMin)
}

// salienceScore implements spec.md §4.10 step 1:
//
//	familiarity(agent,player) + w1*interest(agent,topic)
//	  + w2*tension*paranoia(agent) - w3*(ticksSinceLastSpoke<2)
func salienceScore(a *agent.Agent, playerID string, topic string, tension float64, ticksSinceLastSpoke int, familiarity FamiliarityLookup, interest InterestFunc) float64 {
	fam := 0.0
	if familiarity != nil {
		fam = familiarity.Familiarity(uint64(a.ID), playerIDHash(playerID))
	}

	interestScore := 0.0
	if interest != nil {
		interestScore = interest(a, topic)
	}

	recentPenalty := 0.0
	if ticksSinceLastSpoke < 2 {
		recentPenalty = 1.0
	}

	return fam + WeightInterest*interestScore + WeightTensionParanoia*tension*paranoia(a) - WeightRecentlySpoke*recentPenalty
}

// playerIDHash maps a player's string id into the uint64 id-space
// internal/relation.Store keys familiarity by, so player familiarity
// can share the same directed/symmetric store as agent-to-agent
// relations without Store needing a second key type.
func playerIDHash(playerID string) uint64 {
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	for i := 0; i < len(playerID); i++ {
		h ^= uint64(playerID[i])
		h *= 1099511628211
	}
	return h
}
