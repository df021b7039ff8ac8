package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending              TicketStatus = "pending"
	TicketStatusStandard             TicketStatus = "standard"
	TicketStatusUrgentValidated      TicketStatus = "urgent_validated"
	TicketStatusDowngradedToStandard TicketStatus = "downgraded_to_standard"
)

// IsTerminal reports whether a ticket in this status may be persisted.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketStatusStandard, TicketStatusUrgentValidated, TicketStatusDowngradedToStandard:
		return true
	}
	return false
}

// TicketPriority is the priority requested at submission.
type TicketPriority string

const (
	TicketPriorityStandard TicketPriority = "standard"
	TicketPriorityUrgent   TicketPriority = "urgent"
)

// ParsePriority maps raw form input to a priority. Anything but "urgent" is standard.
func ParsePriority(raw string) TicketPriority {
	if TicketPriority(raw) == TicketPriorityUrgent {
		return TicketPriorityUrgent
	}
	return TicketPriorityStandard
}

// Ticket is a unit of reported work. Once persisted it is never mutated.
type Ticket struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Impact      string         `json:"impact"`
	Priority    TicketPriority `json:"priority"`
	Timestamp   time.Time      `json:"timestamp"`
	Status      TicketStatus   `json:"status"`
}
