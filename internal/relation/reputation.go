package relation

import "sync"

// playerAgentKey and playerFactionKey key the two reputation maps
// spec.md §3 describes: {(playerId,agentId)->value} and
// {(playerId,factionId)->value}.
type playerAgentKey struct {
	playerID string
	agentID  uint64
}

type playerFactionKey struct {
	playerID  string
	factionID uint64
}

// EnemyLookup resolves the enemy factions of a faction, for the
// reputation ripple rule. Implemented by internal/faction; kept as a
// narrow interface here to avoid relation depending on faction.
type EnemyLookup interface {
	EnemiesOf(factionID uint64) []uint64
}

// RippleDamping (η) scales how much a change in reputation with one
// faction ripples (negatively) into its enemies' reputation (spec.md
// §3: "Δrep(p,f') += −η·Δrep(p,f) for every enemy f' of f").
const RippleDamping = 0.25

// ReputationBook tracks player-to-agent and player-to-faction
// reputation, clamped to [-1,1] at all times (testable property 7).
type ReputationBook struct {
	mu       sync.RWMutex
	agentRep map[playerAgentKey]float64
	factRep  map[playerFactionKey]float64
}

// NewReputationBook creates an empty reputation ledger.
func NewReputationBook() *ReputationBook {
	return &ReputationBook{
		agentRep: make(map[playerAgentKey]float64),
		factRep:  make(map[playerFactionKey]float64),
	}
}

// AgentRep returns a player's reputation with a specific agent.
func (b *ReputationBook) AgentRep(playerID string, agentID uint64) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.agentRep[playerAgentKey{playerID: playerID, agentID: agentID}]
}

// FactionRep returns a player's reputation with a faction.
func (b *ReputationBook) FactionRep(playerID string, factionID uint64) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.factRep[playerFactionKey{playerID: playerID, factionID: factionID}]
}

// ApplyAgentDelta adjusts a player's reputation with an agent by
// delta, clamped to [-1,1] (spec.md §4.6 effect (c)).
func (b *ReputationBook) ApplyAgentDelta(playerID string, agentID uint64, delta float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := playerAgentKey{playerID: playerID, agentID: agentID}
	v := clampTrust(b.agentRep[k] + delta)
	b.agentRep[k] = v
	return v
}

// ApplyFactionDelta adjusts a player's reputation with a faction by
// delta, clamped to [-1,1], and ripples a damped negative delta into
// every enemy faction's reputation (spec.md §3, §4.6 effect (d)).
func (b *ReputationBook) ApplyFactionDelta(playerID string, factionID uint64, delta float64, enemies EnemyLookup) float64 {
	b.mu.Lock()
	k := playerFactionKey{playerID: playerID, factionID: factionID}
	v := clampTrust(b.factRep[k] + delta)
	b.factRep[k] = v
	b.mu.Unlock()

	if enemies != nil {
		for _, enemyID := range enemies.EnemiesOf(factionID) {
			b.mu.Lock()
			ek := playerFactionKey{playerID: playerID, factionID: enemyID}
			b.factRep[ek] = clampTrust(b.factRep[ek] - RippleDamping*delta)
			b.mu.Unlock()
		}
	}
	return v
}
