package faction

import (
	"fmt"
	"sync"

	"github.com/talgya/npcforge/internal/entropy"
)

// EventKind enumerates the deterministic faction events that mutate
// relation scores (spec.md §4.11).
type EventKind string

const (
	EventSkirmish       EventKind = "skirmish"
	EventTradeDeal      EventKind = "trade_deal"
	EventBetrayal       EventKind = "betrayal"
	EventAllianceFormed EventKind = "alliance_formed"
)

// eventDeltas are the deterministic relation-score deltas applied by
// each event kind, grounded on the teacher's hardcoded tension/drift
// magnitudes in internal/engine/factions.go, generalized into named
// constants instead of inline literals.
var eventDeltas = map[EventKind]float64{
	EventSkirmish:       -0.12,
	EventTradeDeal:      0.08,
	EventBetrayal:       -0.35,
	EventAllianceFormed: 0.30,
}

// Event is a notable faction happening, consumable by the world event
// log (internal/worldclock).
type Event struct {
	Kind        EventKind
	FactionA    ID
	FactionB    ID
	Description string
}

// RelationHalfLifeHours matches internal/relation.HalfLifeHours: both
// packages drift independent state on the same cadence (spec.md §5).
const RelationHalfLifeHours = 48.0

// Engine owns every Faction, Territory, TradeRoute, and Battle
// (spec.md §3 Ownership: "FactionEngine owns factions/territories/
// routes/battles").
type Engine struct {
	mu         sync.RWMutex
	factions   map[ID]*Faction
	territories map[string]*Territory
	routes     map[string]*TradeRoute
	battles    map[string]*Battle
	rng        *entropy.Source
}

// NewEngine creates an empty FactionEngine driven by the given RNG
// source (spec.md §5: "RNG: owned by WorldClock only" — callers pass
// the WorldClock-owned source in, FactionEngine does not own one).
func NewEngine(rng *entropy.Source) *Engine {
	return &Engine{
		factions:    make(map[ID]*Faction),
		territories: make(map[string]*Territory),
		routes:      make(map[string]*TradeRoute),
		battles:     make(map[string]*Battle),
		rng:         rng,
	}
}

func (e *Engine) AddFaction(f *Faction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.factions[f.ID] = f
}

func (e *Engine) Faction(id ID) (*Faction, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.factions[id]
	return f, ok
}

// EnemiesOf satisfies internal/relation.EnemyLookup.
func (e *Engine) EnemiesOf(id uint64) []uint64 {
	f, ok := e.Faction(ID(id))
	if !ok {
		return nil
	}
	out := make([]uint64, 0)
	for _, eid := range f.Enemies() {
		out = append(out, uint64(eid))
	}
	return out
}

func (e *Engine) AddTerritory(t *Territory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.territories[t.ID] = t
}

func (e *Engine) Territory(id string) (*Territory, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.territories[id]
	return t, ok
}

func (e *Engine) AddRoute(r *TradeRoute) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.routes[r.ID] = r
}

func (e *Engine) Route(id string) (*TradeRoute, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.routes[id]
	return r, ok
}

// SetRouteStatus forces a route's status directly, for boundary-level
// disrupt/restore operations outside the normal daily roll.
func (e *Engine) SetRouteStatus(id, status string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.routes[id]
	if !ok {
		return false
	}
	r.Status = status
	return true
}

func (e *Engine) StartBattle(b *Battle) {
	b.Status = BattleInProgress
	e.mu.Lock()
	defer e.mu.Unlock()
	e.battles[b.ID] = b
}

func (e *Engine) Battle(id string) (*Battle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.battles[id]
	return b, ok
}

// Factions returns every faction, for list reads (spec.md §6 "GET /factions").
func (e *Engine) Factions() []*Faction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Faction, 0, len(e.factions))
	for _, f := range e.factions {
		out = append(out, f)
	}
	return out
}

// Territories returns every territory, for list reads (spec.md §6 "GET /territory/control").
func (e *Engine) Territories() []*Territory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Territory, 0, len(e.territories))
	for _, t := range e.territories {
		out = append(out, t)
	}
	return out
}

// Routes returns every trade route, for list reads (spec.md §6 "GET /traderoutes").
func (e *Engine) Routes() []*TradeRoute {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*TradeRoute, 0, len(e.routes))
	for _, r := range e.routes {
		out = append(out, r)
	}
	return out
}

// ApplyEvent mutates relation scores between two factions by the
// deterministic delta for kind (spec.md §4.11).
func (e *Engine) ApplyEvent(kind EventKind, a, b ID) Event {
	delta := eventDeltas[kind]
	e.mu.RLock()
	fa, aok := e.factions[a]
	fb, bok := e.factions[b]
	e.mu.RUnlock()

	if aok {
		fa.AdjustRelation(b, delta)
	}
	if bok {
		fb.AdjustRelation(a, delta)
	}

	return Event{
		Kind:     kind,
		FactionA: a,
		FactionB: b,
		Description: fmt.Sprintf("%s between faction %d and faction %d", kind, a, b),
	}
}
