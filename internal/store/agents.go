package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/talgya/npcforge/internal/agent"
)

// AgentFilter narrows ListAgents (spec.md §4.1 "listAgents(filter,
// page)"). Zero value matches every agent.
type AgentFilter struct {
	FactionID *uint64
	Zone      string
	AliveOnly bool
}

// Page bounds a ListAgents scan.
type Page struct {
	Offset int
	Limit  int
}

type agentRow struct {
	ID                uint64   `db:"id"`
	Role              string   `db:"role"`
	FactionID         *uint64  `db:"faction_id"`
	Zone              *string  `db:"zone"`
	PosX              *float64 `db:"pos_x"`
	PosY              *float64 `db:"pos_y"`
	PosZ              *float64 `db:"pos_z"`
	PersonalityJSON   string `db:"personality_json"`
	VitalsJSON        string `db:"vitals_json"`
	MoodJSON          string `db:"mood_json"`
	GoalsJSON         string `db:"goals_json"`
	VoiceFingerprint  *string `db:"voice_fingerprint"`
	Alive             bool   `db:"alive"`
	CreatedAt         int64  `db:"created_at"`
	LastInteractionAt int64  `db:"last_interaction_at"`
}

// PutAgent writes a full replace of one agent's durable row (spec.md
// §4.1 "putAgent"). Hot per-tick vitals/mood fields still go through
// WriteBehindQueue; PutAgent is for init and structural changes (role,
// faction, location, goals).
func (db *DB) PutAgent(a *agent.Agent) error {
	personality, err := json.Marshal(a.Personality)
	if err != nil {
		return fmt.Errorf("marshal personality: %w", err)
	}
	vitals, err := json.Marshal(a.Vitals)
	if err != nil {
		return fmt.Errorf("marshal vitals: %w", err)
	}
	mood, err := json.Marshal(a.Mood)
	if err != nil {
		return fmt.Errorf("marshal mood: %w", err)
	}
	goals, err := json.Marshal(a.Goals)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}

	var zone *string
	var x, y, z *float64
	if a.Location != nil {
		zone = &a.Location.Zone
		x, y, z = &a.Location.X, &a.Location.Y, &a.Location.Z
	}

	_, err = db.conn.Exec(`INSERT INTO agents
		(id, role, faction_id, zone, pos_x, pos_y, pos_z, personality_json,
		 vitals_json, mood_json, goals_json, voice_fingerprint, alive,
		 created_at, last_interaction_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			role=excluded.role, faction_id=excluded.faction_id, zone=excluded.zone,
			pos_x=excluded.pos_x, pos_y=excluded.pos_y, pos_z=excluded.pos_z,
			personality_json=excluded.personality_json, vitals_json=excluded.vitals_json,
			mood_json=excluded.mood_json, goals_json=excluded.goals_json,
			voice_fingerprint=excluded.voice_fingerprint, alive=excluded.alive,
			last_interaction_at=excluded.last_interaction_at`,
		uint64(a.ID), string(a.Role), a.FactionID, zone, x, y, z,
		string(personality), string(vitals), string(mood), string(goals),
		nullableString(a.VoiceFingerprint), a.Alive, a.CreatedAt.Unix(), a.LastInteractionAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("put agent %d: %w", a.ID, err)
	}
	return nil
}

// GetAgent reads one agent's durable row (spec.md §4.1 "getAgent(id)").
func (db *DB) GetAgent(id agent.ID) (*agent.Agent, error) {
	var row agentRow
	err := db.conn.Get(&row, `SELECT id, role, faction_id, zone, pos_x, pos_y, pos_z,
		personality_json, vitals_json, mood_json, goals_json, voice_fingerprint,
		alive, created_at, last_interaction_at FROM agents WHERE id = ?`, uint64(id))
	if err != nil {
		return nil, fmt.Errorf("get agent %d: %w", id, err)
	}
	return rowToAgent(row)
}

// ListAgents returns a filtered, paginated slice of agents (spec.md
// §4.1 "listAgents(filter, page)").
func (db *DB) ListAgents(filter AgentFilter, page Page) ([]*agent.Agent, error) {
	query := `SELECT id, role, faction_id, zone, pos_x, pos_y, pos_z,
		personality_json, vitals_json, mood_json, goals_json, voice_fingerprint,
		alive, created_at, last_interaction_at FROM agents WHERE 1=1`
	var args []any

	if filter.FactionID != nil {
		query += " AND faction_id = ?"
		args = append(args, *filter.FactionID)
	}
	if filter.Zone != "" {
		query += " AND zone = ?"
		args = append(args, filter.Zone)
	}
	if filter.AliveOnly {
		query += " AND alive = 1"
	}
	query += " ORDER BY id"

	limit := page.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, page.Offset)

	var rows []agentRow
	if err := db.conn.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	out := make([]*agent.Agent, 0, len(rows))
	for _, r := range rows {
		a, err := rowToAgent(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func rowToAgent(r agentRow) (*agent.Agent, error) {
	var personality agent.Personality
	if err := json.Unmarshal([]byte(r.PersonalityJSON), &personality); err != nil {
		return nil, fmt.Errorf("unmarshal personality for agent %d: %w", r.ID, err)
	}
	var vitals agent.Vitals
	if err := json.Unmarshal([]byte(r.VitalsJSON), &vitals); err != nil {
		return nil, fmt.Errorf("unmarshal vitals for agent %d: %w", r.ID, err)
	}
	var mood agent.Mood
	if err := json.Unmarshal([]byte(r.MoodJSON), &mood); err != nil {
		return nil, fmt.Errorf("unmarshal mood for agent %d: %w", r.ID, err)
	}
	var goals []agent.Goal
	if r.GoalsJSON != "" {
		if err := json.Unmarshal([]byte(r.GoalsJSON), &goals); err != nil {
			return nil, fmt.Errorf("unmarshal goals for agent %d: %w", r.ID, err)
		}
	}

	a := &agent.Agent{
		ID:                agent.ID(r.ID),
		Role:              agent.Role(r.Role),
		Personality:       personality,
		Vitals:            vitals,
		Mood:              mood,
		FactionID:         r.FactionID,
		Goals:             goals,
		Alive:             r.Alive,
		CreatedAt:         time.Unix(r.CreatedAt, 0),
		LastInteractionAt: time.Unix(r.LastInteractionAt, 0),
	}
	if r.VoiceFingerprint != nil {
		a.VoiceFingerprint = *r.VoiceFingerprint
	}
	if r.Zone != nil && r.PosX != nil && r.PosY != nil && r.PosZ != nil {
		a.Location = &agent.Location{Zone: *r.Zone, X: *r.PosX, Y: *r.PosY, Z: *r.PosZ}
	}
	return a, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
