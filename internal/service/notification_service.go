package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-gate/internal/config"
	"github.com/spec-kit/ticket-gate/internal/events"
)

// EventForwarder ships events to an external sink such as a message broker.
type EventForwarder interface {
	Forward(event events.Event)
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	forwarder  EventForwarder
}

// NewNotificationService creates the service. forwarder may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, forwarder EventForwarder) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		forwarder:  forwarder,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventChallengeOpened, n.handleChallengeOpened)
	n.dispatcher.Subscribe(events.EventEscalationValidated, n.handleEscalationValidated)
	n.dispatcher.Subscribe(events.EventTicketDowngraded, n.handleTicketDowngraded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.forward(event)
	return nil
}

func (n *NotificationService) handleChallengeOpened(ctx context.Context, event events.Event) error {
	n.logger.Info("ChallengeOpened", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleEscalationValidated(ctx context.Context, event events.Event) error {
	n.logger.Info("EscalationValidated", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	n.forward(event)
	return nil
}

func (n *NotificationService) handleTicketDowngraded(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketDowngraded", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.forward(event)
	return nil
}

func (n *NotificationService) forward(event events.Event) {
	if n.forwarder == nil {
		return
	}
	n.forwarder.Forward(event)
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
