package events

import (
	"time"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventChallengeOpened     EventType = "ticket_challenge_opened"
	EventEscalationValidated EventType = "ticket_escalation_validated"
	EventTicketDowngraded    EventType = "ticket_downgraded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int         `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload is sent when a standard ticket is stored directly.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
	Status   domain.TicketStatus   `json:"status"`
}

// ChallengeOpenedPayload is sent when an urgent draft is parked behind the puzzle.
type ChallengeOpenedPayload struct {
	Title    string `json:"title"`
	Attempts int    `json:"attempts"`
}

// EscalationValidatedPayload is sent when the puzzle is solved.
type EscalationValidatedPayload struct {
	ElapsedSeconds int `json:"elapsed_seconds"`
	AttemptsUsed   int `json:"attempts_used"`
}

// TicketDowngradedPayload is sent when all attempts are spent.
type TicketDowngradedPayload struct {
	RequestedPriority domain.TicketPriority `json:"requested_priority"`
	NewPriority       domain.TicketPriority `json:"new_priority"`
	AttemptsUsed      int                   `json:"attempts_used"`
}
