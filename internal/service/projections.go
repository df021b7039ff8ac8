package service

import (
	"context"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// QueueView splits stored tickets into the two work queues.
type QueueView struct {
	Urgent   []domain.Ticket
	Standard []domain.Ticket
}

// StatsView summarizes challenge outcomes across stored tickets.
type StatsView struct {
	Total           int
	UrgentValidated int
	Downgraded      int
	Standard        int
	UrgentRate      float64
	SuccessRate     float64
}

// Queue partitions stored tickets, keeping storage order. Downgraded
// tickets join the standard queue.
func (s *TicketService) Queue(ctx context.Context) QueueView {
	view := QueueView{Urgent: []domain.Ticket{}, Standard: []domain.Ticket{}}
	for _, t := range s.ledger.All(ctx) {
		switch t.Status {
		case domain.TicketStatusUrgentValidated:
			view.Urgent = append(view.Urgent, t)
		case domain.TicketStatusPending, domain.TicketStatusStandard, domain.TicketStatusDowngradedToStandard:
			view.Standard = append(view.Standard, t)
		}
	}
	return view
}

// Stats counts stored tickets by outcome. Standard counts pending and
// standard only; downgraded tickets are reported under Downgraded.
func (s *TicketService) Stats(ctx context.Context) StatsView {
	var view StatsView
	for _, t := range s.ledger.All(ctx) {
		view.Total++
		switch t.Status {
		case domain.TicketStatusUrgentValidated:
			view.UrgentValidated++
		case domain.TicketStatusDowngradedToStandard:
			view.Downgraded++
		case domain.TicketStatusPending, domain.TicketStatusStandard:
			view.Standard++
		}
	}
	view.UrgentRate = percentOneDecimal(view.UrgentValidated, view.Total)
	view.SuccessRate = percentOneDecimal(view.UrgentValidated, view.UrgentValidated+view.Downgraded)
	return view
}

// percentOneDecimal returns num/den*100 rounded half-up to one decimal,
// computed on the exact ratio. A zero denominator yields 0.
func percentOneDecimal(num, den int) float64 {
	if den <= 0 || num <= 0 {
		return 0
	}
	tenths := (int64(num)*2000 + int64(den)) / (2 * int64(den))
	return float64(tenths) / 10
}
