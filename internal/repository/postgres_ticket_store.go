package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// PostgresTicketStore keeps the ticket list in the tickets table. The seq
// column records list order so Load returns tickets as they were saved.
type PostgresTicketStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketStore instantiates the store.
func NewPostgresTicketStore(pool *pgxpool.Pool) *PostgresTicketStore {
	return &PostgresTicketStore{pool: pool}
}

func (s *PostgresTicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	if s.pool == nil {
		return nil, ErrStoreNotFound
	}
	const query = `
        SELECT id, title, description, impact, priority, created_at, status
        FROM tickets ORDER BY seq`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// Save replaces the table contents inside one transaction.
func (s *PostgresTicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	if s.pool == nil {
		return ErrStoreNotFound
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM tickets`); err != nil {
		return fmt.Errorf("clear tickets: %w", err)
	}

	rows := make([][]any, 0, len(tickets))
	for i, t := range tickets {
		rows = append(rows, []any{
			int64(i),
			t.ID,
			t.Title,
			t.Description,
			t.Impact,
			string(t.Priority),
			t.Timestamp,
			string(t.Status),
		})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"tickets"},
		[]string{"seq", "id", "title", "description", "impact", "priority", "created_at", "status"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy tickets: %w", err)
	}
	return tx.Commit(ctx)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var (
			ticket   domain.Ticket
			priority string
			status   string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Impact,
			&priority,
			&ticket.Timestamp,
			&status,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
		}
		ticket.Priority = domain.TicketPriority(priority)
		ticket.Status = domain.TicketStatus(status)
		result = append(result, ticket)
	}
	return result, rows.Err()
}
