// Package slack provides the send_slack_message custom action using Slack incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

const Name = "send_slack_message"

// ErrSlackRequestFailed is returned when the webhook answers with a non-2xx status.
var ErrSlackRequestFailed = errors.New("failed to send Slack message")

type message struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// CustomAction returns the registry entry posting through client.
func CustomAction(client *http.Client, clock clockwork.Clock, logger *slog.Logger) registry.CustomAction {
	logger = logger.With("module", "send_slack_message_action")

	return registry.CustomAction{
		Name:        Name,
		Description: "Send a message to a Slack channel using webhooks",
		Parameters: map[string]registry.Parameter{
			"webhookUrl": {Type: registry.ParameterString, Description: "Slack webhook URL", Required: true},
			"channel":    {Type: registry.ParameterString, Description: "The Slack channel to send to (e.g., #support)", Required: true},
			"message":    {Type: registry.ParameterString, Description: "The message to send", Required: true},
			"username":   {Type: registry.ParameterString, Description: "Display name for the bot", Default: "AutoCRM Bot"},
			"icon_emoji": {Type: registry.ParameterString, Description: "Emoji to use as the bot icon", Default: ":robot_face:"},
		},
		Handler: func(ctx context.Context, params map[string]any, wctx models.WorkflowContext) (any, error) {
			payload, err := json.Marshal(message{
				Channel:   registry.String(params, "channel"),
				Text:      registry.String(params, "message"),
				Username:  registry.String(params, "username"),
				IconEmoji: registry.String(params, "icon_emoji"),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to marshal slack message: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, registry.String(params, "webhookUrl"), bytes.NewReader(payload))
			if err != nil {
				return nil, fmt.Errorf("failed to create slack request: %w", err)
			}

			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("slack request failed: %w", err)
			}

			defer func() {
				_ = resp.Body.Close()
			}()

			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("%w: %s", ErrSlackRequestFailed, resp.Status)
			}

			logger.InfoContext(ctx, "Sent Slack message", "channel", registry.String(params, "channel"), "workflow_id", wctx.WorkflowID)

			return map[string]any{
				"success":   true,
				"timestamp": clock.Now().UTC().Format(time.RFC3339),
			}, nil
		},
	}
}
