package kernel

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StdioSessionID is the implicit, singular session identifier used by the
// stdio transport (spec.md §4.5).
const StdioSessionID = "stdio"

// Session tracks per-client state for the HTTP transport: when it was
// created/last seen, which resource URIs it has subscribed to, and any
// server-initiated messages queued for delivery over SSE.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastSeenAt   time.Time
	Subscriptions map[string]struct{}
	Pending      []any
}

// SessionManager allocates and expires sessions. The teacher's HTTPServer
// kept a bare sync.Map of session IDs; this generalizes it with an idle-TTL
// sweep modeled on the teacher's internal/scheduler.Scheduler (a ticker
// driving periodic work), repurposed here for session eviction instead of
// janitor runs.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopped  bool
}

// NewSessionManager creates a manager with the given idle TTL (default 30
// minutes per spec.md §4.5 if ttl <= 0).
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
}

// Create allocates a new session with a cryptographically random ID.
func (m *SessionManager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	s := &Session{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		LastSeenAt:    now,
		Subscriptions: make(map[string]struct{}),
	}
	m.sessions[s.ID] = s
	return s
}

// Touch records activity on a session and returns it, or nil if unknown.
func (m *SessionManager) Touch(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	s.LastSeenAt = time.Now()
	return s
}

// Get returns a session without updating its last-seen time.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session (used for HTTP DELETE termination).
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Subscribe records that a session is watching a resource URI. Fails if the
// session is unknown.
func (m *SessionManager) Subscribe(id, uri string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.Subscriptions[uri] = struct{}{}
	return true
}

func (m *SessionManager) Unsubscribe(id, uri string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	delete(s.Subscriptions, uri)
	return true
}

// sweep evicts sessions idle for longer than the TTL, releasing their
// subscriptions and pending queues.
func (m *SessionManager) sweep() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.LastSeenAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// StartEvictionLoop runs the idle-session sweep on the given interval until
// Stop is called. Mirrors the teacher's Scheduler.AddJob/Start ticker loop.
func (m *SessionManager) StartEvictionLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *SessionManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stop)
}

// Count returns the number of active sessions (used by tests and stats).
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
