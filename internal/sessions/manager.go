package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"shipline/internal/inventory"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager owns all live reservation sessions, keyed by session ID. Sessions
// are in-memory only: a lost session's seat holds simply lapse with their
// TTL.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	inv     inventory.Service
	holdTTL time.Duration
}

func NewManager(inv inventory.Service, holdTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		inv:      inv,
		holdTTL:  holdTTL,
	}
}

func (m *Manager) Begin() *Session {
	s := newSession(m.inv, m.holdTTL)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ClearBooking tears a session down, releasing any seats it still holds.
// Called after a successful commit (holds became sold, release is a no-op)
// and on explicit abandonment.
func (m *Manager) ClearBooking(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropHolds(ctx)
}

// Count reports live sessions, for the status endpoint.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
