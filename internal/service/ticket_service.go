package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-gate/internal/challenge"
	"github.com/spec-kit/ticket-gate/internal/domain"
	"github.com/spec-kit/ticket-gate/internal/events"
	"github.com/spec-kit/ticket-gate/internal/observability"
	"github.com/spec-kit/ticket-gate/internal/repository"
	"github.com/spec-kit/ticket-gate/internal/session"
)

// RetryMessage is shown after a wrong grid while attempts remain.
const RetryMessage = "Incorrect solution. Try again!"

var (
	// ErrTicketNotFound is returned by ResolveTicket for unknown ids.
	ErrTicketNotFound = repository.ErrTicketNotFound
	// ErrNoActiveChallenge is returned when the visitor has no pending urgent draft.
	ErrNoActiveChallenge = errors.New("no active challenge")
)

// AttemptOutcome is the state a challenge session lands in after a grid submission.
type AttemptOutcome string

const (
	OutcomeValidated AttemptOutcome = "validated"
	OutcomeRetry     AttemptOutcome = "retry"
	OutcomeExhausted AttemptOutcome = "exhausted"
)

// TicketService drives a ticket from submission to its terminal status.
type TicketService struct {
	ledger     *repository.TicketLedger
	sessions   session.Store
	puzzle     challenge.Puzzle
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
	locks      keyedMutex
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Ledger     *repository.TicketLedger
	Sessions   session.Store
	Puzzle     challenge.Puzzle
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// TicketSubmission carries raw form values. Blank fields are kept as-is.
type TicketSubmission struct {
	Title       string
	Description string
	Impact      string
	Priority    string
}

// SubmitResult tells the caller where to send the visitor next.
type SubmitResult struct {
	RedirectToChallenge bool
	TicketID            int
}

// ChallengeView is what the visitor sees while a challenge is open.
type ChallengeView struct {
	Puzzle            [][]int
	AttemptsRemaining int
	Message           string
}

// AttemptResult reports the verdict on one grid submission.
type AttemptResult struct {
	Outcome        AttemptOutcome
	TicketID       int
	ElapsedSeconds int
	Challenge      *ChallengeView
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		ledger:     deps.Ledger,
		sessions:   deps.Sessions,
		puzzle:     deps.Puzzle,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if svc.puzzle == (challenge.Puzzle{}) {
		svc.puzzle = challenge.Default
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Submit creates a draft ticket. Urgent drafts are parked in the visitor's
// challenge session; everything else is stored immediately as standard.
func (s *TicketService) Submit(ctx context.Context, visitorID string, input TicketSubmission) (SubmitResult, error) {
	// Postgres keeps microseconds; truncating here keeps every backend's
	// round trip exact.
	now := s.now().Truncate(time.Microsecond)
	draft := domain.Ticket{
		ID:          s.ledger.ReserveID(ctx),
		Title:       input.Title,
		Description: input.Description,
		Impact:      input.Impact,
		Priority:    domain.ParsePriority(input.Priority),
		Timestamp:   now,
		Status:      domain.TicketStatusPending,
	}

	if draft.Priority == domain.TicketPriorityUrgent {
		unlock := s.locks.lock(visitorID)
		defer unlock()

		cs := domain.NewChallengeSession(draft, now)
		if err := s.sessions.Put(ctx, visitorID, cs); err != nil {
			return SubmitResult{}, fmt.Errorf("open challenge session: %w", err)
		}
		s.logger.Info("challenge opened", zap.Int("ticket_id", draft.ID))
		s.publishEvent(ctx, events.Event{
			Type:     events.EventChallengeOpened,
			TicketID: draft.ID,
			Payload: events.ChallengeOpenedPayload{
				Title:    draft.Title,
				Attempts: cs.AttemptsRemaining,
			},
		})
		return SubmitResult{RedirectToChallenge: true}, nil
	}

	draft.Status = domain.TicketStatusStandard
	if err := s.ledger.Append(ctx, draft); err != nil {
		return SubmitResult{}, err
	}
	s.logger.Info("ticket stored", zap.Int("ticket_id", draft.ID), zap.String("status", string(draft.Status)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: draft.ID,
		Payload: events.TicketCreatedPayload{
			Title:    draft.Title,
			Priority: draft.Priority,
			Status:   draft.Status,
		},
	})
	return SubmitResult{TicketID: draft.ID}, nil
}

// Challenge returns the puzzle for the visitor's open session.
func (s *TicketService) Challenge(ctx context.Context, visitorID string) (*ChallengeView, error) {
	cs, err := s.activeSession(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	return s.challengeView(cs.AttemptsRemaining, ""), nil
}

// Attempt judges a submitted grid against the puzzle and advances the
// visitor's session. Attempts from one visitor are serialized.
func (s *TicketService) Attempt(ctx context.Context, visitorID string, grid challenge.Grid) (*AttemptResult, error) {
	unlock := s.locks.lock(visitorID)
	defer unlock()

	cs, err := s.activeSession(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	// A session restored after a failed downgrade write has no attempts left.
	if cs.AttemptsRemaining <= 0 {
		return s.downgrade(ctx, visitorID, cs, domain.InitialChallengeAttempts)
	}
	attemptsUsed := domain.InitialChallengeAttempts - cs.AttemptsRemaining + 1

	if s.puzzle.Verify(grid) {
		ticket := cs.Draft
		ticket.Status = domain.TicketStatusUrgentValidated
		elapsed := cs.Elapsed(s.now())
		if err := s.resolve(ctx, visitorID, cs, ticket); err != nil {
			return nil, err
		}
		s.metrics.RecordChallengeOutcome(string(OutcomeValidated))
		s.publishEvent(ctx, events.Event{
			Type:     events.EventEscalationValidated,
			TicketID: ticket.ID,
			Payload: events.EscalationValidatedPayload{
				ElapsedSeconds: elapsed,
				AttemptsUsed:   attemptsUsed,
			},
		})
		return &AttemptResult{Outcome: OutcomeValidated, TicketID: ticket.ID, ElapsedSeconds: elapsed}, nil
	}

	if cs.RecordFailure() {
		if err := s.sessions.Put(ctx, visitorID, cs); err != nil {
			return nil, fmt.Errorf("update challenge session: %w", err)
		}
		s.metrics.RecordChallengeOutcome(string(OutcomeRetry))
		return &AttemptResult{
			Outcome:   OutcomeRetry,
			TicketID:  cs.Draft.ID,
			Challenge: s.challengeView(cs.AttemptsRemaining, RetryMessage),
		}, nil
	}

	return s.downgrade(ctx, visitorID, cs, attemptsUsed)
}

func (s *TicketService) downgrade(ctx context.Context, visitorID string, cs *domain.ChallengeSession, attemptsUsed int) (*AttemptResult, error) {
	ticket := cs.Draft
	requested := ticket.Priority
	ticket.Status = domain.TicketStatusDowngradedToStandard
	ticket.Priority = domain.TicketPriorityStandard
	if err := s.resolve(ctx, visitorID, cs, ticket); err != nil {
		return nil, err
	}
	s.metrics.RecordChallengeOutcome(string(OutcomeExhausted))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDowngraded,
		TicketID: ticket.ID,
		Payload: events.TicketDowngradedPayload{
			RequestedPriority: requested,
			NewPriority:       ticket.Priority,
			AttemptsUsed:      attemptsUsed,
		},
	})
	return &AttemptResult{Outcome: OutcomeExhausted, TicketID: ticket.ID}, nil
}

// ResolveTicket looks a stored ticket up by id.
func (s *TicketService) ResolveTicket(ctx context.Context, id int) (*domain.Ticket, error) {
	return s.ledger.FindByID(ctx, id)
}

func (s *TicketService) activeSession(ctx context.Context, visitorID string) (*domain.ChallengeSession, error) {
	cs, err := s.sessions.Get(ctx, visitorID)
	if errors.Is(err, session.ErrNoSession) {
		return nil, ErrNoActiveChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("load challenge session: %w", err)
	}
	return cs, nil
}

// resolve clears the session and stores the terminal ticket. The session is
// cleared first so a ticket can never be stored twice; it is put back when
// the store write fails.
func (s *TicketService) resolve(ctx context.Context, visitorID string, cs *domain.ChallengeSession, ticket domain.Ticket) error {
	if err := s.sessions.Delete(ctx, visitorID); err != nil {
		return fmt.Errorf("clear challenge session: %w", err)
	}
	if err := s.ledger.Append(ctx, ticket); err != nil {
		if restoreErr := s.sessions.Put(ctx, visitorID, cs); restoreErr != nil {
			s.logger.Error("failed to restore challenge session",
				zap.Int("ticket_id", ticket.ID), zap.Error(restoreErr))
		}
		return err
	}
	s.logger.Info("ticket stored", zap.Int("ticket_id", ticket.ID), zap.String("status", string(ticket.Status)))
	return nil
}

func (s *TicketService) challengeView(attempts int, message string) *ChallengeView {
	return &ChallengeView{
		Puzzle:            s.puzzle.Givens.Rows(),
		AttemptsRemaining: attempts,
		Message:           message,
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
