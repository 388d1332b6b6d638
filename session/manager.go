// Package session keeps one form controller per page load. Sessions are
// in-memory only and expire after a period of inactivity.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/qrform/form"
	"github.com/openclaw/qrform/render"
)

// Session pairs a controller with the surface it draws on.
type Session struct {
	ID         string
	Controller *form.Controller
	Created    time.Time

	surface  *render.Surface
	lastSeen time.Time
}

// Manager owns all live sessions.
type Manager struct {
	encoder render.Encoder
	opts    render.Options
	ttl     time.Duration
	max     int
	log     *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager. A zero ttl disables expiry and a zero max
// disables the session cap.
func NewManager(encoder render.Encoder, opts render.Options, ttl time.Duration, max int, log *slog.Logger) *Manager {
	return &Manager{
		encoder:  encoder,
		opts:     opts,
		ttl:      ttl,
		max:      max,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a fresh session with its own surface and controller.
func (m *Manager) Create() *Session {
	now := m.now()
	surface := render.NewSurface(m.opts.Width)
	s := &Session{
		ID:         uuid.NewString(),
		Controller: form.NewController(m.encoder, surface, m.opts, m.log),
		Created:    now,
		surface:    surface,
		lastSeen:   now,
	}

	m.mu.Lock()
	if m.max > 0 && len(m.sessions) >= m.max {
		m.evictOldestLocked()
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Debug("session created", "session_id", s.ID)
	return s
}

// Get returns the session and marks it as active.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = m.now()
	}
	return s, ok
}

// Delete ends a session. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.log.Debug("session deleted", "session_id", id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the ttl and returns how many
// were dropped.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	n := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// evictOldestLocked drops the least recently used session. The caller MUST
// hold m.mu.
func (m *Manager) evictOldestLocked() {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(m.sessions, oldest.ID)
		m.log.Info("session evicted, limit reached", "session_id", oldest.ID, "max_sessions", m.max)
	}
}
