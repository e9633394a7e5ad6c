package quest

import (
	"testing"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/memory"
)

func TestGenerateUsesStrongestMemoryAsSeed(t *testing.T) {
	mem := memory.NewEngine(nil)
	subject := memory.Subject{Kind: memory.SubjectPlayer, ID: "p1"}
	mem.Insert("m1", agent.ID(1), subject, memory.CategorySecret, "owes a debt to the smith", 0.8)

	book := NewBook()
	q := Generate(book, mem, agent.ID(1), "p1", time.Unix(0, 0), time.Hour)

	if q.Status != StatusAvailable {
		t.Fatalf("new quest status = %v, want available", q.Status)
	}
	if q.PlayerID != "p1" {
		t.Fatalf("quest playerID = %v, want p1", q.PlayerID)
	}
}

func TestAcceptCompleteLifecycle(t *testing.T) {
	book := NewBook()
	q := Generate(book, nil, agent.ID(1), "p1", time.Unix(0, 0), time.Hour)

	if !book.Accept(q.ID) {
		t.Fatalf("expected accept to succeed")
	}
	if book.Accept(q.ID) {
		t.Fatalf("double-accept should fail")
	}
	if !book.Complete(q.ID) {
		t.Fatalf("expected complete to succeed")
	}
}

func TestExpirySweepExpiresPastDeadline(t *testing.T) {
	book := NewBook()
	now := time.Unix(1000, 0)
	q := Generate(book, nil, agent.ID(1), "p1", now, -time.Minute)

	n := book.ExpirySweep(now)
	if n != 1 {
		t.Fatalf("ExpirySweep returned %d, want 1", n)
	}
	got, _ := book.Get(q.ID)
	if got.Status != StatusExpired {
		t.Fatalf("quest status = %v, want expired", got.Status)
	}
}
