package ritual

import (
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/moviepick/internal/models"
	"github.com/google/uuid"
)

// Manager holds the live ritual sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	roster   models.Roster
	opts     []Option
}

// NewManager creates a session registry for the roster. Options are applied to every session.
func NewManager(roster models.Roster, opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		roster:   roster,
		opts:     opts,
	}
}

// Start opens a new session over the candidates
func (m *Manager) Start(candidates []string) (*Session, error) {
	s, err := NewSession(uuid.NewString(), m.roster, candidates, m.opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a live session
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove discards a session
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Prune drops sessions whose last operation happened before cutoff and returns how many were removed
func (m *Manager) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
