// Package log provides the log_message custom action.
package log

import (
	"context"
	"log/slog"
	"strings"

	applog "github.com/autocrm/autocrm/pkg/log"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

const Name = "log_message"

// CustomAction logs the message parameter with the workflow and ticket ids attached.
func CustomAction(logger *slog.Logger) registry.CustomAction {
	logger = logger.With("action_type", Name)

	return registry.CustomAction{
		Name:        Name,
		Description: "Logs a message at a specified level",
		Parameters: map[string]registry.Parameter{
			"message": {Type: registry.ParameterString, Description: "The message to log", Required: true},
			"level":   {Type: registry.ParameterString, Description: "Log level for the message", Default: "info"},
		},
		Handler: func(ctx context.Context, params map[string]any, wctx models.WorkflowContext) (any, error) {
			message := registry.String(params, "message")
			level := applog.ParseLevel(registry.String(params, "level"))

			logger.Log(ctx, level, message, "workflow_id", wctx.WorkflowID, "ticket_id", wctx.TicketID)

			return map[string]any{
				"message": message,
				"level":   strings.ToLower(level.String()),
			}, nil
		},
	}
}
