package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

func TestLogMessageAction(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := registry.NewRegistry(logger)
	require.NoError(t, r.Register(CustomAction(logger)))

	output, err := r.Execute(context.Background(), Name, map[string]any{
		"message": "Escalated ticket",
		"level":   "warn",
	}, models.WorkflowContext{WorkflowID: "wf-1", TicketID: "T-1"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"message": "Escalated ticket", "level": "warn"}, output)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `msg="Escalated ticket"`)
	assert.Contains(t, buf.String(), "ticket_id=T-1")
}
