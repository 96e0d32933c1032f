package session

import (
	"context"
	"sync"
	"time"

	"github.com/nadzzz/fotiva/internal/dialogue"
)

type memoryEntry struct {
	state    dialogue.AwaitingSlots
	deadline time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory store. Entries older than ttl are
// dropped; a zero ttl keeps them until deleted.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     expiry(ttl),
		now:     time.Now,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (dialogue.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.deadline.IsZero() && m.now().After(e.deadline) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	return e.state, nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, id string, s dialogue.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := s.(dialogue.AwaitingSlots)
	if !ok {
		delete(m.entries, id)
		return nil
	}
	e := memoryEntry{state: a}
	if m.ttl > 0 {
		e.deadline = m.now().Add(m.ttl)
	}
	m.entries[id] = e
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
