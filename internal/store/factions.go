package store

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/npcforge/internal/faction"
)

type relationsPayload map[uint64]faction.RelationEntry

// PutFaction writes a full replace of one faction's durable row
// (spec.md §4.1's Store contract does not name putFaction explicitly
// but getFaction implies a paired write path; grounded on the same
// full-replace pattern PutAgent/PutRoute use).
func (db *DB) PutFaction(f *faction.Faction) error {
	values, err := json.Marshal(f.Values)
	if err != nil {
		return fmt.Errorf("marshal faction values: %w", err)
	}

	relations := make(relationsPayload)
	for id := range f.Relations {
		r := f.RelationWith(id)
		relations[uint64(id)] = r
	}
	relationsJSON, err := json.Marshal(relations)
	if err != nil {
		return fmt.Errorf("marshal faction relations: %w", err)
	}

	resources, err := json.Marshal(map[string]float64{"resources": f.Resources})
	if err != nil {
		return fmt.Errorf("marshal faction resources: %w", err)
	}

	_, err = db.conn.Exec(`INSERT INTO factions (id, name, values_json, resources_json, relations_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, values_json=excluded.values_json,
			resources_json=excluded.resources_json, relations_json=excluded.relations_json`,
		uint64(f.ID), f.Name, string(values), string(resources), string(relationsJSON))
	if err != nil {
		return fmt.Errorf("put faction %d: %w", f.ID, err)
	}
	return nil
}

// GetFaction reads one faction's durable row (spec.md §4.1
// "getFaction").
func (db *DB) GetFaction(id faction.ID) (*faction.Faction, error) {
	var row struct {
		ID            uint64 `db:"id"`
		Name          string `db:"name"`
		ValuesJSON    string `db:"values_json"`
		ResourcesJSON string `db:"resources_json"`
		RelationsJSON string `db:"relations_json"`
	}
	if err := db.conn.Get(&row, `SELECT id, name, values_json, resources_json, relations_json
		FROM factions WHERE id = ?`, uint64(id)); err != nil {
		return nil, fmt.Errorf("get faction %d: %w", id, err)
	}

	var values []string
	if err := json.Unmarshal([]byte(row.ValuesJSON), &values); err != nil {
		return nil, fmt.Errorf("unmarshal faction %d values: %w", id, err)
	}
	f := faction.NewFaction(faction.ID(row.ID), row.Name, values)

	var resources map[string]float64
	if err := json.Unmarshal([]byte(row.ResourcesJSON), &resources); err != nil {
		return nil, fmt.Errorf("unmarshal faction %d resources: %w", id, err)
	}
	f.Resources = resources["resources"]

	var relations relationsPayload
	if err := json.Unmarshal([]byte(row.RelationsJSON), &relations); err != nil {
		return nil, fmt.Errorf("unmarshal faction %d relations: %w", id, err)
	}
	for other, r := range relations {
		f.SetRelation(faction.ID(other), r.Score)
	}
	return f, nil
}

// PutTerritory writes a full replace of one territory's durable row.
func (db *DB) PutTerritory(t *faction.Territory) error {
	_, err := db.conn.Exec(`INSERT INTO territories
		(id, controlling_faction, control_strength, strategic_value, contested, contested_weeks)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			controlling_faction=excluded.controlling_faction, control_strength=excluded.control_strength,
			strategic_value=excluded.strategic_value, contested=excluded.contested,
			contested_weeks=excluded.contested_weeks`,
		t.ID, uint64(t.ControllingFaction), t.ControlStrength, t.StrategicValue, t.Contested, t.ContestedWeeks)
	if err != nil {
		return fmt.Errorf("put territory %s: %w", t.ID, err)
	}
	return nil
}

// GetTerritory reads one territory's durable row (spec.md §4.1
// "getTerritory").
func (db *DB) GetTerritory(id string) (*faction.Territory, error) {
	var row struct {
		ID                 string  `db:"id"`
		ControllingFaction uint64  `db:"controlling_faction"`
		ControlStrength    float64 `db:"control_strength"`
		StrategicValue     float64 `db:"strategic_value"`
		Contested          bool    `db:"contested"`
		ContestedWeeks     int     `db:"contested_weeks"`
	}
	if err := db.conn.Get(&row, `SELECT id, controlling_faction, control_strength, strategic_value,
		contested, contested_weeks FROM territories WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get territory %s: %w", id, err)
	}
	return &faction.Territory{
		ID:                 row.ID,
		ControllingFaction: faction.ID(row.ControllingFaction),
		ControlStrength:    row.ControlStrength,
		StrategicValue:     row.StrategicValue,
		Contested:          row.Contested,
		ContestedWeeks:     row.ContestedWeeks,
	}, nil
}

// PutRoute writes a full replace of one trade route's durable row
// (spec.md §4.1 "putRoute").
func (db *DB) PutRoute(r *faction.TradeRoute) error {
	_, err := db.conn.Exec(`INSERT INTO trade_routes
		(id, from_faction, to_faction, goods, profit_margin, risk_level, status, total_trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			goods=excluded.goods, profit_margin=excluded.profit_margin, risk_level=excluded.risk_level,
			status=excluded.status, total_trades=excluded.total_trades`,
		r.ID, r.From, r.To, r.Goods, r.ProfitMargin, r.RiskLevel, r.Status, r.TotalTrades)
	if err != nil {
		return fmt.Errorf("put route %s: %w", r.ID, err)
	}
	return nil
}

// GetRoute reads one trade route's durable row.
func (db *DB) GetRoute(id string) (*faction.TradeRoute, error) {
	var row struct {
		ID           string  `db:"id"`
		From         string  `db:"from_faction"`
		To           string  `db:"to_faction"`
		Goods        string  `db:"goods"`
		ProfitMargin float64 `db:"profit_margin"`
		RiskLevel    float64 `db:"risk_level"`
		Status       string  `db:"status"`
		TotalTrades  int     `db:"total_trades"`
	}
	if err := db.conn.Get(&row, `SELECT id, from_faction, to_faction, goods, profit_margin,
		risk_level, status, total_trades FROM trade_routes WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get route %s: %w", id, err)
	}
	return &faction.TradeRoute{
		ID: row.ID, From: row.From, To: row.To, Goods: row.Goods,
		ProfitMargin: row.ProfitMargin, RiskLevel: row.RiskLevel,
		Status: row.Status, TotalTrades: row.TotalTrades,
	}, nil
}

// PutBattle writes a full replace of one battle's durable row.
func (db *DB) PutBattle(b *faction.Battle) error {
	_, err := db.conn.Exec(`INSERT INTO battles
		(id, territory, attacker, defender, attacker_strength, defender_strength, status, casualties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			attacker_strength=excluded.attacker_strength, defender_strength=excluded.defender_strength,
			status=excluded.status, casualties=excluded.casualties`,
		b.ID, b.Territory, uint64(b.Attacker), uint64(b.Defender), b.AttackerStr, b.DefenderStr, b.Status, b.Casualties)
	if err != nil {
		return fmt.Errorf("put battle %s: %w", b.ID, err)
	}
	return nil
}
