package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/autocrm/autocrm/pkg/eventbus"
	"github.com/autocrm/autocrm/pkg/events"
	"github.com/autocrm/autocrm/pkg/models"
)

// Email hands rendered messages to an external mailer through the event bus.
type Email struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewEmail(publisher eventbus.EventPublisher, logger *slog.Logger) *Email {
	return &Email{
		publisher: publisher,
		logger:    logger.With("module", "email_notifier"),
	}
}

func (e *Email) Send(ctx context.Context, recipients []string, message string, wctx models.WorkflowContext) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	event := events.EmailNotificationRequested{
		BaseEvent:  events.NewBaseEvent(events.EmailNotificationRequestedEvent, wctx.WorkflowID),
		TicketID:   wctx.TicketID,
		Recipients: recipients,
		Message:    message,
	}

	key := wctx.TicketID
	if key == "" {
		key = wctx.WorkflowID
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		return fmt.Errorf("failed to request email delivery: %w", err)
	}

	e.logger.DebugContext(ctx, "Requested email delivery", "recipients", len(recipients), "workflow_id", wctx.WorkflowID)

	return nil
}
