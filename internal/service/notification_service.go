package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/events"
)

// NotificationService handles emitting notifications for membership events.
// Delivery is stubbed: events are logged and would fan out to the email and
// webhook collaborators in a full deployment.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMembershipApplied, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventMembershipApproved, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventMembershipRejected, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventMembershipRemoved, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventMembershipRestored, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventPersonDeleted, n.handleMembershipEvent)
}

func (n *NotificationService) handleMembershipEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("membership notification",
		zap.String("type", string(event.Type)),
		zap.String("person_id", event.PersonID),
		zap.String("record_id", event.RecordID),
		zap.Any("payload", event.Payload),
	)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	n.logger.Debug("email notification (stub)",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("type", string(event.Type)),
	)
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if n.cfg.WebhookURL == "" {
		return
	}
	n.logger.Debug("webhook notification (stub)",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("type", string(event.Type)),
	)
}
