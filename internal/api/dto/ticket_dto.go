package dto

import (
	"time"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// SubmitTicketRequest payload. Absent fields decode as empty strings.
type SubmitTicketRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Impact      string `json:"impact" form:"impact"`
	Priority    string `json:"priority" form:"priority"`
}

// TicketResponse describes a stored ticket.
type TicketResponse struct {
	ID          int                   `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Impact      string                `json:"impact"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	Timestamp   time.Time             `json:"timestamp"`
}

// IndexResponse lists the entry points.
type IndexResponse struct {
	Service string            `json:"service"`
	Links   map[string]string `json:"links"`
}

// NewTicketFormResponse describes the submission form.
type NewTicketFormResponse struct {
	Action     string   `json:"action"`
	Fields     []string `json:"fields"`
	Priorities []string `json:"priorities"`
}

// ChallengeResponse is the puzzle page.
type ChallengeResponse struct {
	Puzzle            [][]int `json:"puzzle"`
	AttemptsRemaining int     `json:"attempts"`
	Error             string  `json:"error,omitempty"`
	Action            string  `json:"action"`
}

// ChallengeSuccessResponse is shown when the puzzle is solved.
type ChallengeSuccessResponse struct {
	TicketID       int `json:"ticket_id"`
	ElapsedSeconds int `json:"elapsed"`
}

// ChallengeFailedResponse is shown when attempts run out.
type ChallengeFailedResponse struct {
	TicketID int `json:"ticket_id"`
}

// QueueResponse lists both work queues.
type QueueResponse struct {
	UrgentTickets   []TicketResponse `json:"urgent_tickets"`
	StandardTickets []TicketResponse `json:"standard_tickets"`
}

// StatsResponse reports challenge statistics.
type StatsResponse struct {
	Total           int     `json:"total"`
	UrgentValidated int     `json:"urgent_validated"`
	Downgraded      int     `json:"downgraded"`
	Standard        int     `json:"standard"`
	UrgentRate      float64 `json:"urgent_rate"`
	SuccessRate     float64 `json:"success_rate"`
}
