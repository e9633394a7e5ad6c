package agent

import "context"

// Mailbox serializes all mutations to a single agent through one
// goroutine, satisfying spec.md §4.3's invariant that a single
// goroutine owns writes for a given agent and spec.md §5's ordering
// guarantee that effects of interaction A complete before interaction B
// begins for the same agent.
type Mailbox struct {
	agent *Agent
	tasks chan func(*Agent)
	done  chan struct{}
}

// NewMailbox starts the owning goroutine for agent a. Call Close to stop it.
func NewMailbox(a *Agent) *Mailbox {
	m := &Mailbox{
		agent: a,
		tasks: make(chan func(*Agent), 64),
		done:  make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mailbox) run() {
	defer close(m.done)
	for task := range m.tasks {
		task(m.agent)
	}
}

// Submit enqueues fn to run against the owned agent and blocks until it
// has completed, returning ctx.Err() if the context is cancelled first
// (the in-flight task, once started, still runs to completion — only
// queuing respects cancellation, per spec.md §5: in-flight writes are
// not cancelled for consistency).
func (m *Mailbox) Submit(ctx context.Context, fn func(*Agent)) error {
	result := make(chan struct{})
	wrapped := func(a *Agent) {
		fn(a)
		close(result)
	}
	select {
	case m.tasks <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-result:
		return nil
	case <-ctx.Done():
		// The task is already queued/running; wait for it anyway so the
		// mailbox never races with the next caller, but report the
		// cancellation to this caller.
		<-result
		return ctx.Err()
	}
}

// Close stops accepting new tasks and waits for the goroutine to drain.
func (m *Mailbox) Close() {
	close(m.tasks)
	<-m.done
}
