package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// TicketLedger serializes every read-modify-write against a TicketStore and
// hands out ticket ids.
type TicketLedger struct {
	mu     sync.Mutex
	store  TicketStore
	logger *zap.Logger
	nextID int
}

// NewTicketLedger wraps store.
func NewTicketLedger(store TicketStore, logger *zap.Logger) *TicketLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketLedger{store: store, logger: logger}
}

// All returns every stored ticket in insertion order.
func (l *TicketLedger) All(ctx context.Context) []domain.Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// FindByID returns the first stored ticket with id.
func (l *TicketLedger) FindByID(ctx context.Context, id int) (*domain.Ticket, error) {
	for _, t := range l.All(ctx) {
		if t.ID == id {
			ticket := t
			return &ticket, nil
		}
	}
	return nil, ErrTicketNotFound
}

// ReserveID returns an id greater than every stored and previously reserved id.
func (l *TicketLedger) ReserveID(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observe(l.load(ctx))
	id := l.nextID
	l.nextID++
	return id
}

// Append persists a terminal ticket at the end of the list.
func (l *TicketLedger) Append(ctx context.Context, ticket domain.Ticket) error {
	if !ticket.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrNonTerminalTicket, ticket.Status)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	tickets := append(l.load(ctx), ticket)
	if err := l.store.Save(ctx, tickets); err != nil {
		return fmt.Errorf("save tickets: %w", err)
	}
	l.observe(tickets)
	return nil
}

// load must be called with mu held. Read failures degrade to an empty list.
func (l *TicketLedger) load(ctx context.Context) []domain.Ticket {
	tickets, err := l.store.Load(ctx)
	switch {
	case err == nil:
		return tickets
	case errors.Is(err, ErrStoreNotFound):
		return nil
	default:
		l.logger.Warn("ticket store unreadable; treating as empty", zap.Error(err))
		return nil
	}
}

func (l *TicketLedger) observe(tickets []domain.Ticket) {
	if l.nextID < 1 {
		l.nextID = 1
	}
	for _, t := range tickets {
		if t.ID >= l.nextID {
			l.nextID = t.ID + 1
		}
	}
}
