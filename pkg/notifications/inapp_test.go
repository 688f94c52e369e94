package notifications

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/testutil"
)

func TestInApp_SendAndInbox(t *testing.T) {
	client := testutil.RedisClient(t)
	ctx := context.Background()

	notifier := NewInApp(client, slog.Default()).WithPrefix("test:" + uuid.NewString() + ":")

	require.NoError(t, notifier.Send(ctx, []string{"agent-1", "agent-2"}, "first", models.WorkflowContext{WorkflowID: "wf-1", TicketID: "T-1"}))
	require.NoError(t, notifier.Send(ctx, []string{"agent-1"}, "second", models.WorkflowContext{WorkflowID: "wf-1", TicketID: "T-2"}))

	inbox, err := notifier.Inbox(ctx, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "second", inbox[0].Message)
	assert.Equal(t, "T-2", inbox[0].TicketID)
	assert.Equal(t, "first", inbox[1].Message)

	other, err := notifier.Inbox(ctx, "agent-2", 0)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	assert.ErrorIs(t, notifier.Send(ctx, nil, "x", models.WorkflowContext{}), ErrNoRecipients)
}
