package faction

import (
	"fmt"
	"math"
	"strconv"
)

// BattleResolveRatio: a side's battle resolves once its effective
// strength falls below this fraction of the other side's (spec.md
// §4.11: "falls below 0.4·other").
const BattleResolveRatio = 0.4

// CasualtyFraction scales how much the losing side's aggregate
// strength the winner's relative advantage costs (grounded on the
// teacher's adjustFactionInfluenceFromCrime-style small fractional
// penalties, generalized to battle resolution).
const CasualtyFraction = 0.1

// MoraleFunc and TerritoryBonusFunc let callers (internal/worldclock,
// tests) supply morale/territory modifiers without FactionEngine
// depending on internal/agent or internal/proximity.
type MoraleFunc func(f ID) float64
type TerritoryBonusFunc func(territory string, f ID) float64

// Tick advances FactionEngine by deltaHours of simulated time: relation
// drift, battle resolution, and (once per simulated day) trade route
// rolls (spec.md §4.11).
func (e *Engine) Tick(deltaHours float64, simDay int, morale MoraleFunc, territoryBonus TerritoryBonusFunc) []Event {
	var events []Event

	e.driftRelations(deltaHours)
	events = append(events, e.advanceBattles(morale, territoryBonus)...)
	if simDay >= 0 {
		events = append(events, e.rollTradeRoutes(simDay)...)
	}
	return events
}

// driftRelations decays every faction pair's relation score toward 0
// with the spec's 48h half-life, skipping nothing (FactionEngine has
// no per-pair "pinned" concept distinct from relation events
// themselves resetting the score each tick they fire).
func (e *Engine) driftRelations(deltaHours float64) {
	if deltaHours <= 0 {
		return
	}
	factor := math.Exp(-math.Ln2 / RelationHalfLifeHours * deltaHours)

	e.mu.RLock()
	factions := make([]*Faction, 0, len(e.factions))
	for _, f := range e.factions {
		factions = append(factions, f)
	}
	e.mu.RUnlock()

	for _, f := range factions {
		f.mu.Lock()
		for id, r := range f.Relations {
			r.Score *= factor
			r.Label = LabelFor(r.Score)
			f.Relations[id] = r
		}
		f.mu.Unlock()
	}
}

func defaultMorale(ID) float64             { return 1.0 }
func defaultTerritoryBonus(string, ID) float64 { return 1.0 }

// advanceBattles resolves every in-progress battle whose effective
// strength ratio has crossed BattleResolveRatio (spec.md §4.11).
func (e *Engine) advanceBattles(morale MoraleFunc, territoryBonus TerritoryBonusFunc) []Event {
	if morale == nil {
		morale = defaultMorale
	}
	if territoryBonus == nil {
		territoryBonus = defaultTerritoryBonus
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	for _, b := range e.battles {
		if b.Status != BattleInProgress {
			continue
		}
		attackerEff := b.AttackerStr * morale(b.Attacker) * territoryBonus(b.Territory, b.Attacker)
		defenderEff := b.DefenderStr * morale(b.Defender) * territoryBonus(b.Territory, b.Defender)

		if attackerEff < BattleResolveRatio*defenderEff {
			b.Status = BattleDefenderWon
			b.Casualties = CasualtyFraction * (defenderEff - attackerEff)
		} else if defenderEff < BattleResolveRatio*attackerEff {
			b.Status = BattleAttackerWon
			b.Casualties = CasualtyFraction * (attackerEff - defenderEff)
			if t, ok := e.territories[b.Territory]; ok {
				t.ControllingFaction = b.Attacker
				t.ControlStrength = clamp(attackerEff/(attackerEff+defenderEff), 0, 1)
			}
		} else {
			continue
		}

		events = append(events, Event{
			Kind:        EventSkirmish,
			FactionA:    b.Attacker,
			FactionB:    b.Defender,
			Description: fmt.Sprintf("battle for %s resolved: %s", b.Territory, b.Status),
		})
	}
	return events
}

// rollTradeRoutes rolls every active route once per simulated day
// (spec.md §4.11: success prob = 1-riskLevel; failure may disrupt the
// route with probability riskLevel^2).
func (e *Engine) rollTradeRoutes(simDay int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	for _, r := range e.routes {
		if r.Status != RouteActive {
			continue
		}
		roll := e.rng.Float64()
		if roll < 1-r.RiskLevel {
			r.TotalTrades++
			e.creditRouteEndpoint(r.From, r.ProfitMargin)
			e.creditRouteEndpoint(r.To, r.ProfitMargin)
			events = append(events, Event{
				Kind:        EventTradeDeal,
				Description: fmt.Sprintf("trade route %s succeeded (margin %.2f)", r.ID, r.ProfitMargin),
			})
			continue
		}

		if e.rng.Float64() < r.RiskLevel*r.RiskLevel {
			r.Status = RouteDisrupted
			events = append(events, Event{
				Kind:        EventBetrayal,
				Description: fmt.Sprintf("trade route %s disrupted", r.ID),
			})
		}
	}
	return events
}

// creditRouteEndpoint adds a successful trade's profit to the faction
// named by endpoint, if endpoint parses as a known faction id (spec.md
// §4.11: "both endpoint agents accrue resources proportional to
// profitMargin"). Called with e.mu already held; endpoints that don't
// resolve to a tracked faction are silently skipped rather than erroring,
// since a route endpoint may name an unaffiliated settlement.
func (e *Engine) creditRouteEndpoint(endpoint string, profitMargin float64) {
	id, err := strconv.ParseUint(endpoint, 10, 64)
	if err != nil {
		return
	}
	if f, ok := e.factions[ID(id)]; ok {
		f.AdjustResources(profitMargin)
	}
}
