package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-gate/internal/events"
	"github.com/spec-kit/ticket-gate/internal/service"
)

const maxPublishAttempts = 3

// Publisher delivers one event to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ForwardWorker ships events to a Publisher off the request path.
type ForwardWorker struct {
	publisher Publisher
	logger    *zap.Logger
	queue     chan events.Event
	backoff   time.Duration
	drainFor  time.Duration
	done      chan struct{}
}

// NewForwardWorker buffers up to buffer events before dropping new ones.
func NewForwardWorker(publisher Publisher, logger *zap.Logger, buffer int) *ForwardWorker {
	if buffer <= 0 {
		buffer = 64
	}
	return &ForwardWorker{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan events.Event, buffer),
		backoff:   200 * time.Millisecond,
		drainFor:  5 * time.Second,
		done:      make(chan struct{}),
	}
}

// Forward enqueues event without blocking.
func (w *ForwardWorker) Forward(event events.Event) {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("forward queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
}

// Run publishes queued events until ctx is cancelled, then drains the
// buffer for at most drainFor.
func (w *ForwardWorker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		if ctx.Err() != nil {
			w.drain()
			return
		}
		select {
		case <-ctx.Done():
		case event := <-w.queue:
			w.publish(ctx, event)
		}
	}
}

// drain publishes whatever is still buffered, bounded by drainFor.
func (w *ForwardWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainFor)
	defer cancel()
	for {
		if ctx.Err() != nil {
			if n := len(w.queue); n > 0 {
				w.logger.Warn("dropping undelivered events on shutdown", zap.Int("count", n))
			}
			return
		}
		select {
		case event := <-w.queue:
			w.publish(ctx, event)
		default:
			return
		}
	}
}

// Done is closed once Run returns.
func (w *ForwardWorker) Done() <-chan struct{} {
	return w.done
}

func (w *ForwardWorker) publish(ctx context.Context, event events.Event) {
	backoff := w.backoff
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		err := w.publisher.Publish(ctx, event)
		if err == nil {
			return
		}
		w.logger.Warn("forward event failed",
			zap.String("event_id", event.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == maxPublishAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	w.logger.Error("giving up on event", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
}

// StartNotificationWorker registers notification handlers and, when a
// forward worker is given, runs it until ctx is cancelled.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, forward *ForwardWorker) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if forward != nil {
		go forward.Run(ctx)
	}
}
