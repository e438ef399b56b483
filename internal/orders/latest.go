package orders

import (
	"context"
	"sync"
)

// Latest tracks the newest list query per browser session. Starting a query
// cancels the previous in-flight one of the same session, and only the
// newest query's result may be committed to the view.
type Latest struct {
	mu       sync.Mutex
	next     uint64
	sessions map[string]*generation
}

type generation struct {
	seq    uint64
	cancel context.CancelFunc
}

// Ticket identifies one query started through Latest.
type Ticket struct {
	Session  string
	Snapshot string
	seq      uint64
}

func NewLatest() *Latest {
	return &Latest{sessions: make(map[string]*generation)}
}

// Begin registers a query for session tagged with the state snapshot it was
// issued for. The returned context is canceled when a newer query begins for
// the same session. Queries without a session are never superseded.
func (l *Latest) Begin(ctx context.Context, session, snapshot string) (context.Context, Ticket) {
	if session == "" {
		return ctx, Ticket{Snapshot: snapshot}
	}
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	g, ok := l.sessions[session]
	if !ok {
		g = &generation{}
		l.sessions[session] = g
	}
	if g.cancel != nil {
		g.cancel()
	}
	l.next++
	g.seq = l.next
	g.cancel = cancel
	seq := g.seq
	l.mu.Unlock()

	return ctx, Ticket{Session: session, Snapshot: snapshot, seq: seq}
}

// Current reports whether t is still the newest query of its session.
func (l *Latest) Current(t Ticket) bool {
	if t.Session == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.sessions[t.Session]
	return ok && g.seq == t.seq
}

// Commit finishes t and reports whether its result should be applied. A
// stale ticket is rejected; a current one releases the session entry.
func (l *Latest) Commit(t Ticket) bool {
	if t.Session == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.sessions[t.Session]
	if !ok || g.seq != t.seq {
		return false
	}
	g.cancel()
	delete(l.sessions, t.Session)
	return true
}

// Len returns the number of sessions with a query in flight.
func (l *Latest) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}
