// Package store is the SQLite persistence layer: forward-only schema
// migrations, and the locally-declared Store contracts that
// internal/memory and other engines depend on without importing this
// package (spec.md §4.1 Design Notes). See design doc section 8.3.
//
// Grounded on the teacher's internal/persistence/db.go: sqlx +
// modernc.org/sqlite, schema-via-Exec migrations, full-replace saves
// for small tables and append-only writes for event-shaped ones.
package store

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for world state storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies the schema forward-only, tracked by a single
// meta row rather than a numbered migrations table — spec.md's schema
// is fixed at module-write time, not evolved across releases the way
// the teacher's ALTER-TABLE backfill list was.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		role TEXT NOT NULL,
		faction_id INTEGER,
		zone TEXT,
		pos_x REAL, pos_y REAL, pos_z REAL,
		personality_json TEXT NOT NULL,
		vitals_json TEXT NOT NULL,
		mood_json TEXT NOT NULL,
		goals_json TEXT NOT NULL,
		voice_fingerprint TEXT,
		alive INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		last_interaction_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agents_faction ON agents(faction_id);
	CREATE INDEX IF NOT EXISTS idx_agents_zone ON agents(zone);

	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		owner_agent INTEGER NOT NULL,
		subject_kind INTEGER NOT NULL,
		subject_id TEXT NOT NULL,
		category TEXT NOT NULL,
		content TEXT NOT NULL,
		strength REAL NOT NULL,
		emotional_weight REAL NOT NULL,
		created_at INTEGER NOT NULL,
		last_referenced_at INTEGER NOT NULL,
		ref_count INTEGER NOT NULL,
		source_agent INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_subject ON memories(owner_agent, subject_id);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_last_ref ON memories(owner_agent, last_referenced_at);

	CREATE TABLE IF NOT EXISTS rumors (
		id TEXT PRIMARY KEY,
		about_kind INTEGER NOT NULL,
		about_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_by INTEGER NOT NULL,
		strength REAL NOT NULL,
		spread_set_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rumors_subject ON rumors(about_id);

	CREATE TABLE IF NOT EXISTS relations (
		agent_a INTEGER NOT NULL,
		agent_b INTEGER NOT NULL,
		trust_a_to_b REAL NOT NULL,
		trust_b_to_a REAL NOT NULL,
		familiarity REAL NOT NULL,
		last_interaction_at INTEGER NOT NULL,
		pinned INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (agent_a, agent_b)
	);

	CREATE TABLE IF NOT EXISTS reputations (
		player_id TEXT NOT NULL,
		subject_kind TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (player_id, subject_kind, subject_id)
	);
	CREATE INDEX IF NOT EXISTS idx_reputations_player ON reputations(player_id);

	CREATE TABLE IF NOT EXISTS factions (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		values_json TEXT NOT NULL,
		resources_json TEXT NOT NULL,
		relations_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS territories (
		id TEXT PRIMARY KEY,
		controlling_faction INTEGER NOT NULL,
		control_strength REAL NOT NULL,
		strategic_value REAL NOT NULL,
		contested INTEGER NOT NULL,
		contested_weeks INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trade_routes (
		id TEXT PRIMARY KEY,
		from_faction INTEGER NOT NULL,
		to_faction INTEGER NOT NULL,
		goods TEXT NOT NULL,
		profit_margin REAL NOT NULL,
		risk_level REAL NOT NULL,
		status TEXT NOT NULL,
		total_trades INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_routes_pair ON trade_routes(from_faction, to_faction);

	CREATE TABLE IF NOT EXISTS battles (
		id TEXT PRIMARY KEY,
		territory TEXT NOT NULL,
		attacker INTEGER NOT NULL,
		defender INTEGER NOT NULL,
		attacker_strength REAL NOT NULL,
		defender_strength REAL NOT NULL,
		status TEXT NOT NULL,
		casualties REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quests (
		id TEXT PRIMARY KEY,
		giver_agent INTEGER NOT NULL,
		player_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		difficulty REAL NOT NULL,
		expires_at INTEGER NOT NULL,
		rewards_json TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_quests_player ON quests(player_id);

	CREATE TABLE IF NOT EXISTS conversation_groups (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		zone TEXT NOT NULL,
		participants_json TEXT NOT NULL,
		tension REAL NOT NULL,
		last_active_at INTEGER NOT NULL,
		ended INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at_day INTEGER NOT NULL,
		at_hour REAL NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		meta_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_world_events_day ON world_events(at_day);

	CREATE TABLE IF NOT EXISTS stats_history (
		at_day INTEGER PRIMARY KEY,
		agent_count INTEGER NOT NULL,
		avg_mood_arousal REAL NOT NULL,
		avg_mood_valence REAL NOT NULL,
		active_groups INTEGER NOT NULL,
		open_quests INTEGER NOT NULL
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	var version string
	if err := db.conn.Get(&version, "SELECT value FROM meta WHERE key = 'schema_version'"); err != nil {
		if _, err := db.conn.Exec("INSERT INTO meta (key, value) VALUES ('schema_version', '1')"); err != nil {
			return err
		}
	}

	slog.Debug("store migrated", "path", "<redacted>")
	return nil
}
