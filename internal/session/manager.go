package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks the live sessions of a multi-connection host. The map
// itself is guarded; each Session remains single-sequence and is never
// shared between connections, so frame processing needs no locking.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
	logger   *slog.Logger
}

// NewManager builds a manager that creates sessions from the given config.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   logger,
	}
}

// Create allocates a fresh session and returns its identifier.
func (m *Manager) Create() (string, *Session) {
	id := uuid.NewString()
	var childLogger *slog.Logger
	if m.logger != nil {
		childLogger = m.logger.With("session", id)
	}
	s := New(m.cfg, childLogger)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("session created", "session", id)
	}
	return id, s
}

// Get looks up a session by identifier.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove tears down a session. The session's state simply becomes garbage;
// in-flight analysis results for it are abandoned by the caller.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("session removed", "session", id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
