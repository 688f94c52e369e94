package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	redis "github.com/redis/go-redis/v9"

	"github.com/autocrm/autocrm/pkg/models"
)

const (
	defaultInboxPrefix = "autocrm:inbox:"
	defaultInboxSize   = 100
)

// InboxItem is one in-app notification.
type InboxItem struct {
	Message    string    `json:"message"`
	WorkflowID string    `json:"workflowId,omitempty"`
	TicketID   string    `json:"ticketId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// InApp keeps a capped Redis list per recipient, newest first.
type InApp struct {
	client redis.UniversalClient
	prefix string
	size   int64
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewInApp(client redis.UniversalClient, logger *slog.Logger) *InApp {
	return &InApp{
		client: client,
		prefix: defaultInboxPrefix,
		size:   defaultInboxSize,
		clock:  clockwork.NewRealClock(),
		logger: logger.With("module", "inapp_notifier"),
	}
}

// WithPrefix namespaces the inbox keys, e.g. per test.
func (n *InApp) WithPrefix(prefix string) *InApp {
	n.prefix = prefix

	return n
}

func (n *InApp) key(recipient string) string {
	return n.prefix + recipient
}

func (n *InApp) Send(ctx context.Context, recipients []string, message string, wctx models.WorkflowContext) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	item, err := json.Marshal(InboxItem{
		Message:    message,
		WorkflowID: wctx.WorkflowID,
		TicketID:   wctx.TicketID,
		CreatedAt:  n.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal inbox item: %w", err)
	}

	_, err = n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, recipient := range recipients {
			pipe.LPush(ctx, n.key(recipient), item)
			pipe.LTrim(ctx, n.key(recipient), 0, n.size-1)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store in-app notification: %w", err)
	}

	n.logger.DebugContext(ctx, "Stored in-app notification", "recipients", len(recipients), "workflow_id", wctx.WorkflowID)

	return nil
}

// Inbox returns up to limit notifications for recipient, newest first.
func (n *InApp) Inbox(ctx context.Context, recipient string, limit int64) ([]InboxItem, error) {
	if limit <= 0 {
		limit = n.size
	}

	raw, err := n.client.LRange(ctx, n.key(recipient), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox for %s: %w", recipient, err)
	}

	items := make([]InboxItem, 0, len(raw))

	for _, entry := range raw {
		var item InboxItem
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			n.logger.WarnContext(ctx, "Skipping malformed inbox item", "recipient", recipient, "error", err)

			continue
		}

		items = append(items, item)
	}

	return items, nil
}
