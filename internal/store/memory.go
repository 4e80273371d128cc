package store

import (
	"context"
	"sync"
	"time"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
)

type memEntry struct {
	snap    domain.Snapshot
	expires time.Time
}

// Memory is an in-process store with a sliding TTL per session.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]memEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		sessions: make(map[string]memEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *Memory) Load(_ context.Context, id string) (domain.Snapshot, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.expired(e, m.now()) {
		return domain.Snapshot{}, ErrNotFound
	}
	return copySnapshot(e.snap), nil
}

func (m *Memory) Save(_ context.Context, id string, s domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memEntry{snap: copySnapshot(s), expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if m.expired(e, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len is the number of stored sessions, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Memory) expired(e memEntry, now time.Time) bool {
	return m.ttl > 0 && !now.Before(e.expires)
}

func copySnapshot(s domain.Snapshot) domain.Snapshot {
	s.History = append([]domain.Board(nil), s.History...)
	return s
}
