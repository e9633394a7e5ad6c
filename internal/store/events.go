package store

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/npcforge/internal/worldclock"
)

// AppendWorldEvent persists one world event row (spec.md §4.1
// "appendWorldEvent"). internal/worldclock.EventLog.Append does not
// call it: events appended to the in-memory ring are not written here.
// Unlike memory decay, events are rare enough per-tick that a
// single-row insert is used rather than a batched write.
func (db *DB) AppendWorldEvent(e worldclock.Event) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("marshal event meta: %w", err)
	}
	_, err = db.conn.Exec(`INSERT INTO world_events (at_day, at_hour, kind, description, meta_json)
		VALUES (?, ?, ?, ?, ?)`, e.Day, 0.0, e.Kind, e.Description, string(meta))
	if err != nil {
		return fmt.Errorf("append world event: %w", err)
	}
	return nil
}

// ListWorldEvents reads up to limit most-recent durable events, newest
// first (spec.md §4.1 "listWorldEvents(limit)"). The in-memory ring in
// internal/worldclock.EventLog is the fast path for recent reads; this
// is the durable fallback for history beyond the ring's 1000-event
// window.
func (db *DB) ListWorldEvents(limit int) ([]worldclock.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []struct {
		AtDay       int     `db:"at_day"`
		AtHour      float64 `db:"at_hour"`
		Kind        string  `db:"kind"`
		Description string  `db:"description"`
		MetaJSON    string  `db:"meta_json"`
	}
	if err := db.conn.Select(&rows, `SELECT at_day, at_hour, kind, description, meta_json
		FROM world_events ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list world events: %w", err)
	}

	out := make([]worldclock.Event, 0, len(rows))
	for _, r := range rows {
		var meta map[string]any
		if r.MetaJSON != "" {
			if err := json.Unmarshal([]byte(r.MetaJSON), &meta); err != nil {
				return nil, fmt.Errorf("unmarshal event meta: %w", err)
			}
		}
		out = append(out, worldclock.Event{
			Day: r.AtDay, Kind: r.Kind, Description: r.Description, Meta: meta,
		})
	}
	return out, nil
}

// PutQuest writes a full replace of one quest's durable row, backing
// internal/quest.Book's in-memory registry for restart recovery.
func (db *DB) PutQuest(giverAgent uint64, playerID, id, qtype, title, description string, difficulty float64, expiresAtUnix int64, rewards, status string) error {
	_, err := db.conn.Exec(`INSERT INTO quests
		(id, giver_agent, player_id, type, title, description, difficulty, expires_at, rewards_json, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status`,
		id, giverAgent, playerID, qtype, title, description, difficulty, expiresAtUnix, rewards, status)
	if err != nil {
		return fmt.Errorf("put quest %s: %w", id, err)
	}
	return nil
}

// StatsSnapshot is one daily aggregate row (spec.md §10 supplemented
// feature: the teacher's stats_history table, adopted for
// `/world/events`-adjacent observability). Grounded on the teacher's
// persistence.StatsRow, narrowed to this module's population/mood/
// conversation/quest aggregates.
type StatsSnapshot struct {
	AtDay          int     `db:"at_day"`
	AgentCount     int     `db:"agent_count"`
	AvgMoodArousal float64 `db:"avg_mood_arousal"`
	AvgMoodValence float64 `db:"avg_mood_valence"`
	ActiveGroups   int     `db:"active_groups"`
	OpenQuests     int     `db:"open_quests"`
}

// SaveStatsSnapshot records one day's aggregate, replacing any prior
// snapshot for the same day (spec.md §10: daily stats-history rows,
// exercised by WorldClock's daily tick boundary).
func (db *DB) SaveStatsSnapshot(s StatsSnapshot) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO stats_history
		(at_day, agent_count, avg_mood_arousal, avg_mood_valence, active_groups, open_quests)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.AtDay, s.AgentCount, s.AvgMoodArousal, s.AvgMoodValence, s.ActiveGroups, s.OpenQuests)
	if err != nil {
		return fmt.Errorf("save stats snapshot: %w", err)
	}
	return nil
}

// LoadStatsHistory returns up to limit most-recent daily snapshots,
// newest first.
func (db *DB) LoadStatsHistory(limit int) ([]StatsSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	var rows []StatsSnapshot
	if err := db.conn.Select(&rows, `SELECT at_day, agent_count, avg_mood_arousal, avg_mood_valence, active_groups, open_quests
		FROM stats_history ORDER BY at_day DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("load stats history: %w", err)
	}
	return rows, nil
}

func marshalOrEmpty(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
