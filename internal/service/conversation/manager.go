package conversation

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager keeps the live sessions of the process in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	provider Provider
	opts     []Option
}

// NewManager creates a registry whose sessions share provider and opts.
func NewManager(provider Provider, opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		provider: provider,
		opts:     opts,
	}
}

// Create provisions a session seeded with the greeting.
func (m *Manager) Create(_ context.Context) (*Session, error) {
	session := NewSession(uuid.NewString(), m.provider, m.opts...)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	log.Printf("[conversation] session %s created", session.ID())
	return session, nil
}

// Get retrieves a session by identifier.
func (m *Manager) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// End destroys a session and its log.
func (m *Manager) End(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	log.Printf("[conversation] session %s ended", id)
	return nil
}

// List returns live sessions, oldest first.
func (m *Manager) List(_ context.Context) []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt().Before(sessions[j].CreatedAt())
	})
	return sessions
}
