package console

import (
	"sync"

	"charge-console/internal/schema"
	"charge-console/internal/table"
)

// noticeBuffer collects the transient messages a request's controller
// work produces, so they can travel back in the response body.
type noticeBuffer struct {
	mu   sync.Mutex
	msgs []string
}

func (b *noticeBuffer) Notify(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, message)
}

// Drain returns the collected notices and clears the buffer.
func (b *noticeBuffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.msgs
	b.msgs = nil
	if msgs == nil {
		msgs = []string{}
	}
	return msgs
}

// screenState bundles the controllers behind one table screen for one
// session. All of it is in-memory only and discarded with the session.
type screenState struct {
	list    *table.PagedController
	expand  *table.Expandable
	menu    *table.Menu
	notices *noticeBuffer

	mu      sync.Mutex
	applied schema.Record // filters currently applied from the filter modal
}

// appliedFilters returns a copy of the applied filter record.
func (s *screenState) appliedFilters() schema.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(schema.Record, len(s.applied))
	for k, v := range s.applied {
		out[k] = v
	}
	return out
}

func (s *screenState) setApplied(applied schema.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = applied
}

// sessionState holds a session's per-screen controllers plus the
// in-flight mutation guard that makes double-submit protection uniform
// across every screen.
type sessionState struct {
	mu       sync.Mutex
	screens  map[string]*screenState
	inflight map[string]bool
}

func newSessionState() *sessionState {
	return &sessionState{
		screens:  make(map[string]*screenState),
		inflight: make(map[string]bool),
	}
}

// begin marks a mutation key in flight. Returns false when the same
// mutation is already running.
func (s *sessionState) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return false
	}
	s.inflight[key] = true
	return true
}

// end clears an in-flight mutation key.
func (s *sessionState) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// InFlight reports whether a mutation key is currently running.
func (s *sessionState) InFlight(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[key]
}

// stateCache maps session ids to their controller state.
type stateCache struct {
	mu        sync.Mutex
	bySession map[string]*sessionState
}

func newStateCache() *stateCache {
	return &stateCache{bySession: make(map[string]*sessionState)}
}

func (c *stateCache) get(sessionID string) *sessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.bySession[sessionID]
	if !ok {
		st = newSessionState()
		c.bySession[sessionID] = st
	}
	return st
}

// drop discards all controller state of a session (logout, expiry).
func (c *stateCache) drop(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bySession, sessionID)
}
