// Package notifications provides the transports behind notification steps.
package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/autocrm/autocrm/pkg/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

var (
	ErrNoRecipients         = errors.New("at least one recipient is required")
	ErrWebhookRequestFailed = errors.New("webhook request failed")
)

// TicketReader looks up the ticket attached to a webhook payload.
type TicketReader interface {
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
}

// WebhookPayload is the JSON body posted to webhook recipients.
type WebhookPayload struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// Webhook posts the rendered message to the URL in recipients[0].
type Webhook struct {
	client  *http.Client
	secret  string
	clock   clockwork.Clock
	tickets TicketReader
	logger  *slog.Logger
}

type WebhookOption func(*Webhook)

// WithTicketReader attaches the current ticket record to every payload.
func WithTicketReader(tickets TicketReader) WebhookOption {
	return func(w *Webhook) {
		w.tickets = tickets
	}
}

func WithWebhookClock(clock clockwork.Clock) WebhookOption {
	return func(w *Webhook) {
		w.clock = clock
	}
}

func NewWebhook(client *http.Client, secret string, logger *slog.Logger, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		client: client,
		secret: secret,
		clock:  clockwork.NewRealClock(),
		logger: logger.With("module", "webhook_notifier"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Sign returns the hex HMAC-SHA256 of body keyed with secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

func (w *Webhook) Send(ctx context.Context, recipients []string, message string, wctx models.WorkflowContext) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	url := recipients[0]

	data := map[string]any{
		"workflowId": wctx.WorkflowID,
		"userId":     wctx.UserID,
		"teamId":     wctx.TeamID,
		"ticketId":   wctx.TicketID,
		"data":       wctx.Data,
	}

	if wctx.Trigger != nil {
		data["trigger"] = wctx.Trigger
	}

	if w.tickets != nil && wctx.TicketID != "" {
		ticket, err := w.tickets.GetByID(ctx, wctx.TicketID)
		if err != nil {
			w.logger.WarnContext(ctx, "Failed to load ticket for webhook", "ticket_id", wctx.TicketID, "error", err)
		} else {
			data["ticket"] = ticket
		}
	}

	body, err := json.Marshal(WebhookPayload{
		Event:     message,
		Data:      data,
		Timestamp: w.clock.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, w.secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWebhookRequestFailed, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrWebhookRequestFailed, resp.Status)
	}

	w.logger.InfoContext(ctx, "Sent webhook notification", "url", url, "workflow_id", wctx.WorkflowID, "status", resp.StatusCode)

	return nil
}
