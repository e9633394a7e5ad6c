package store

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutQuestInsertsThenUpdatesStatus(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutQuest(1, "player-1", "q-1", "favor", "A favor", "desc", 0.3, 1234, "{}", "available"); err != nil {
		t.Fatalf("PutQuest insert: %v", err)
	}
	if err := db.PutQuest(1, "player-1", "q-1", "favor", "A favor", "desc", 0.3, 1234, "{}", "accepted"); err != nil {
		t.Fatalf("PutQuest update: %v", err)
	}

	var status string
	if err := db.conn.Get(&status, "SELECT status FROM quests WHERE id = ?", "q-1"); err != nil {
		t.Fatalf("select status: %v", err)
	}
	if status != "accepted" {
		t.Errorf("status = %q, want %q", status, "accepted")
	}
}

func TestSaveAndLoadStatsHistory(t *testing.T) {
	db := openTestDB(t)

	for day := 0; day < 3; day++ {
		snap := StatsSnapshot{AtDay: day, AgentCount: day + 1, AvgMoodArousal: 0.5, AvgMoodValence: 0.6}
		if err := db.SaveStatsSnapshot(snap); err != nil {
			t.Fatalf("SaveStatsSnapshot(day=%d): %v", day, err)
		}
	}

	rows, err := db.LoadStatsHistory(2)
	if err != nil {
		t.Fatalf("LoadStatsHistory: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	// newest day first
	if rows[0].AtDay != 2 || rows[1].AtDay != 1 {
		t.Errorf("rows out of order: %+v", rows)
	}
}
