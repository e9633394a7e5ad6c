package store

import (
	"fmt"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/memory"
)

// InsertMemory persists a single new memory row. Called from
// MemoryEngine.Insert, which is itself rare relative to decay/cleanup
// sweeps, so this path is a plain single-row Exec rather than going
// through the write-behind queue (spec.md only requires batching for
// "bulk" decay/reinforce operations).
func (db *DB) InsertMemory(m memory.Memory) error {
	var source *uint64
	if m.Source != nil {
		v := uint64(*m.Source)
		source = &v
	}
	_, err := db.conn.Exec(`INSERT INTO memories
		(id, owner_agent, subject_kind, subject_id, category, content, strength,
		 emotional_weight, created_at, last_referenced_at, ref_count, source_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, uint64(m.OwnerAgent), m.Subject.Kind, m.Subject.ID, string(m.Category), m.Content,
		m.Strength, m.EmotionalWeight, m.CreatedAt.Unix(), m.LastReferencedAt.Unix(), m.RefCount, source,
	)
	if err != nil {
		return fmt.Errorf("insert memory %s: %w", m.ID, err)
	}
	return nil
}

// QueryMemories reads memories for owner, optionally filtered by
// subject and a minimum strength floor, newest-referenced first
// (callers re-sort by retrieval score; this ordering only bounds the
// scan).
func (db *DB) QueryMemories(owner agent.ID, subject *memory.Subject, minStrength float64, limit int) ([]memory.Memory, error) {
	type row struct {
		ID               string  `db:"id"`
		OwnerAgent       uint64  `db:"owner_agent"`
		SubjectKind      uint8   `db:"subject_kind"`
		SubjectID        string  `db:"subject_id"`
		Category         string  `db:"category"`
		Content          string  `db:"content"`
		Strength         float64 `db:"strength"`
		EmotionalWeight  float64 `db:"emotional_weight"`
		CreatedAt        int64   `db:"created_at"`
		LastReferencedAt int64   `db:"last_referenced_at"`
		RefCount         int     `db:"ref_count"`
		SourceAgent      *uint64 `db:"source_agent"`
	}

	var rows []row
	var err error
	if subject != nil {
		err = db.conn.Select(&rows,
			`SELECT * FROM memories WHERE owner_agent = ? AND subject_id = ? AND strength >= ?
			 ORDER BY last_referenced_at DESC LIMIT ?`,
			uint64(owner), subject.ID, minStrength, limit)
	} else {
		err = db.conn.Select(&rows,
			`SELECT * FROM memories WHERE owner_agent = ? AND strength >= ?
			 ORDER BY last_referenced_at DESC LIMIT ?`,
			uint64(owner), minStrength, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}

	out := make([]memory.Memory, 0, len(rows))
	for _, r := range rows {
		m := memory.Memory{
			ID:               r.ID,
			OwnerAgent:       agent.ID(r.OwnerAgent),
			Subject:          memory.Subject{Kind: memory.SubjectKind(r.SubjectKind), ID: r.SubjectID},
			Category:         memory.Category(r.Category),
			Content:          r.Content,
			Strength:         r.Strength,
			EmotionalWeight:  r.EmotionalWeight,
			RefCount:         r.RefCount,
			CreatedAt:        time.Unix(r.CreatedAt, 0),
			LastReferencedAt: time.Unix(r.LastReferencedAt, 0),
		}
		if r.SourceAgent != nil {
			id := agent.ID(*r.SourceAgent)
			m.Source = &id
		}
		out = append(out, m)
	}
	return out, nil
}

// BulkUpdateStrength applies every decay/reinforce strength change in
// a single transaction, matching spec.md §4.1's "one call per sweep"
// batching requirement.
func (db *DB) BulkUpdateStrength(updates []memory.StrengthUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("UPDATE memories SET strength = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.Exec(u.Strength, u.ID); err != nil {
			return fmt.Errorf("update strength for %s: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteBelow removes every memory whose strength has fallen below
// threshold, run by MemoryEngine's cleanup sweep.
func (db *DB) DeleteBelow(threshold float64) error {
	_, err := db.conn.Exec("DELETE FROM memories WHERE strength < ?", threshold)
	return err
}
