package store

import (
	"context"
	"sync"
	"time"

	"github.com/talgya/npcforge/internal/apperr"
)

// CoalesceWindow bounds how long a vitals/mood write waits before
// being flushed, so a hot agent being updated every tick doesn't
// generate one SQL write per tick (spec.md §4.1: "write-behind queue
// with <=2s coalescing window for vitals/mood").
const CoalesceWindow = 2 * time.Second

// RetryBaseDelay, RetryMaxDelay, and RetryAttempts implement spec.md's
// exponential-backoff retry policy for a flush that fails because the
// database is momentarily unavailable.
const (
	RetryBaseDelay = 100 * time.Millisecond
	RetryMaxDelay  = 5 * time.Second
	RetryAttempts  = 5
)

// VitalsWrite is one pending agent vitals/mood update.
type VitalsWrite struct {
	AgentID     uint64
	Hunger      float64
	Fatigue     float64
	MoodLabel   string
	MoodArousal float64
	MoodValence float64
}

// WriteBehindQueue coalesces repeated per-agent vitals/mood writes
// into the latest value per agent and flushes on a fixed interval,
// retrying a failed flush with exponential backoff. Once RetryAttempts
// are used up the batch is dropped; the failure is not returned or
// reported to any caller.
//
// Grounded on the teacher's persistence.SaveAgents "full replace inside
// one transaction" shape, adapted from a manual periodic snapshot into
// a self-driving coalescing queue per spec.md's latency requirement.
type WriteBehindQueue struct {
	mu      sync.Mutex
	pending map[uint64]VitalsWrite
	db      *DB
	stop    chan struct{}
	done    chan struct{}
}

// NewWriteBehindQueue creates a queue bound to db. Call Run in a
// goroutine to start flushing on CoalesceWindow.
func NewWriteBehindQueue(db *DB) *WriteBehindQueue {
	return &WriteBehindQueue{
		pending: make(map[uint64]VitalsWrite),
		db:      db,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Enqueue stages a vitals/mood write, replacing any not-yet-flushed
// write for the same agent (only the latest value per agent survives
// to the next flush).
func (q *WriteBehindQueue) Enqueue(w VitalsWrite) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[w.AgentID] = w
}

// Run flushes pending writes every CoalesceWindow until Stop is
// called. Intended to run in its own goroutine for the container's
// lifetime.
func (q *WriteBehindQueue) Run() {
	defer close(q.done)
	ticker := time.NewTicker(CoalesceWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.flushWithRetry()
		case <-q.stop:
			q.flushWithRetry()
			return
		}
	}
}

// Stop halts Run and performs one final flush.
func (q *WriteBehindQueue) Stop() {
	close(q.stop)
	<-q.done
}

func (q *WriteBehindQueue) flushWithRetry() {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	batch := make([]VitalsWrite, 0, len(q.pending))
	for _, w := range q.pending {
		batch = append(batch, w)
	}
	q.pending = make(map[uint64]VitalsWrite)
	q.mu.Unlock()

	delay := RetryBaseDelay
	for attempt := 0; attempt < RetryAttempts; attempt++ {
		if err := q.flush(batch); err == nil {
			return
		}
		time.Sleep(delay)
		delay *= 2
		if delay > RetryMaxDelay {
			delay = RetryMaxDelay
		}
	}
	// Every retry exhausted: the batch is dropped rather than retried
	// forever, since vitals/mood are re-derived every tick regardless
	// (spec.md treats the store as a durability layer, not the source
	// of truth for live agent state). Callers polling store health see
	// apperr.StoreUnavailable via Healthcheck.
	_ = apperr.New(apperr.StoreUnavailable, "vitals flush exhausted retries")
}

func (q *WriteBehindQueue) flush(batch []VitalsWrite) error {
	tx, err := q.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`UPDATE agents SET
		vitals_json = ?, mood_json = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range batch {
		vitalsJSON := vitalsJSON(w.Hunger, w.Fatigue)
		moodJSON := moodJSON(w.MoodLabel, w.MoodArousal, w.MoodValence)
		if _, err := stmt.Exec(vitalsJSON, moodJSON, w.AgentID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func vitalsJSON(hunger, fatigue float64) string {
	return marshalOrEmpty(map[string]float64{"hunger": hunger, "fatigue": fatigue})
}

func moodJSON(label string, arousal, valence float64) string {
	return marshalOrEmpty(map[string]any{"label": label, "arousal": arousal, "valence": valence})
}

// Healthcheck pings the database with a short timeout, surfacing
// apperr.StoreUnavailable on failure so the boundary layer can report
// 503 per spec.md §7.
func (db *DB) Healthcheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "database unreachable", err).WithRetry()
	}
	return nil
}
