package domain

import "time"

// InitialChallengeAttempts is the number of tries granted to an urgent ticket.
const InitialChallengeAttempts = 3

// ChallengeSession holds an urgent draft while its submitter works the puzzle.
type ChallengeSession struct {
	Draft             Ticket    `json:"draft"`
	AttemptsRemaining int       `json:"attempts_remaining"`
	StartTime         time.Time `json:"start_time"`
}

// NewChallengeSession opens a session for draft starting at now.
func NewChallengeSession(draft Ticket, now time.Time) *ChallengeSession {
	return &ChallengeSession{
		Draft:             draft,
		AttemptsRemaining: InitialChallengeAttempts,
		StartTime:         now,
	}
}

// RecordFailure consumes one attempt and reports whether any remain.
func (s *ChallengeSession) RecordFailure() bool {
	if s.AttemptsRemaining > 0 {
		s.AttemptsRemaining--
	}
	return s.AttemptsRemaining > 0
}

// Elapsed returns whole seconds since the challenge started, never negative.
func (s *ChallengeSession) Elapsed(now time.Time) int {
	d := now.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
