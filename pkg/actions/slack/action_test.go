package slack_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/actions/slack"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

func TestSendSlackMessage(t *testing.T) {
	t.Parallel()

	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	r := registry.NewRegistry(slog.Default())
	require.NoError(t, r.Register(slack.CustomAction(server.Client(), clock, slog.Default())))

	output, err := r.Execute(context.Background(), slack.Name, map[string]any{
		"webhookUrl": server.URL,
		"channel":    "#support",
		"message":    "Ticket T-1 escalated",
	}, models.WorkflowContext{WorkflowID: "wf-1"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"success": true, "timestamp": "2024-03-01T12:00:00Z"}, output)
	assert.Equal(t, map[string]any{
		"channel":    "#support",
		"text":       "Ticket T-1 escalated",
		"username":   "AutoCRM Bot",
		"icon_emoji": ":robot_face:",
	}, received)
}

func TestSendSlackMessage_Failure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	r := registry.NewRegistry(slog.Default())
	require.NoError(t, r.Register(slack.CustomAction(server.Client(), clockwork.NewRealClock(), slog.Default())))

	_, err := r.Execute(context.Background(), slack.Name, map[string]any{
		"webhookUrl": server.URL,
		"channel":    "#support",
		"message":    "hi",
	}, models.WorkflowContext{})
	assert.ErrorIs(t, err, slack.ErrSlackRequestFailed)

	_, err = r.Execute(context.Background(), slack.Name, map[string]any{"channel": "#support"}, models.WorkflowContext{})
	assert.True(t, registry.IsParameterError(err))
}
