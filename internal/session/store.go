// Package session stores the per-visitor challenge state that bridges an
// urgent submission and its puzzle verdict.
package session

import (
	"context"
	"errors"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// ErrNoSession is returned when the visitor has no pending challenge.
var ErrNoSession = errors.New("no active challenge session")

// Store keeps at most one challenge session per visitor.
type Store interface {
	Get(ctx context.Context, visitorID string) (*domain.ChallengeSession, error)
	Put(ctx context.Context, visitorID string, s *domain.ChallengeSession) error
	Delete(ctx context.Context, visitorID string) error
}
