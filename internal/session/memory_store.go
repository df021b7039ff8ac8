package session

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

type memoryEntry struct {
	session   domain.ChallengeSession
	expiresAt time.Time
}

// MemoryStore keeps sessions in a map. Expired entries are dropped on access.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore creates a store whose entries live for ttl (0 = forever).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Get(ctx context.Context, visitorID string) (*domain.ChallengeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[visitorID]
	if !ok {
		return nil, ErrNoSession
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, visitorID)
		return nil, ErrNoSession
	}
	s := entry.session
	return &s, nil
}

func (m *MemoryStore) Put(ctx context.Context, visitorID string, s *domain.ChallengeSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{session: *s}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[visitorID] = entry
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, visitorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, visitorID)
	return nil
}
