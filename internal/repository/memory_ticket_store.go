package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// MemoryTicketStore keeps tickets in process memory.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets []domain.Ticket
	saved   bool
}

// NewMemoryTicketStore returns an empty store.
func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{}
}

func (s *MemoryTicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return nil, ErrStoreNotFound
	}
	return append([]domain.Ticket(nil), s.tickets...), nil
}

func (s *MemoryTicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append([]domain.Ticket(nil), tickets...)
	s.saved = true
	return nil
}
