package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

var (
	// ErrStoreNotFound means the backing storage does not exist yet.
	ErrStoreNotFound = errors.New("ticket store not found")
	// ErrStoreCorrupt means the backing storage exists but cannot be decoded.
	ErrStoreCorrupt = errors.New("ticket store corrupt")
	// ErrTicketNotFound is returned when no stored ticket has the requested id.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrNonTerminalTicket is returned when persisting a ticket that is still pending.
	ErrNonTerminalTicket = errors.New("ticket status is not terminal")
)

// TicketStore is a durable ordered list of tickets with full-rewrite saves.
type TicketStore interface {
	Load(ctx context.Context) ([]domain.Ticket, error)
	Save(ctx context.Context, tickets []domain.Ticket) error
}
