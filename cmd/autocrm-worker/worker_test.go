package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/cmd"
	"github.com/autocrm/autocrm/pkg/events"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/testutil"
)

func setupWorker(t *testing.T) (*WorkerManager, *models.Workflow) {
	t.Helper()

	ctx := context.Background()

	runtime, err := cmd.NewRuntime(ctx, cmd.Config{
		ServiceName: "autocrm-worker-test",
		DatabaseURL: t.TempDir(),
		EventBus:    "gochannel",
	}, slog.Default())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = runtime.Close(context.Background())
	})

	w := testutil.CreateTestWorkflow(testutil.WithSteps(
		testutil.CustomActionStep("log", "log_message", map[string]any{"message": "Ticket created"}, testutil.WithStart()),
	))
	require.NoError(t, runtime.Persistence.WorkflowRepository().Save(ctx, w))

	worker, err := NewWorkerManager("worker-test", runtime, slog.Default(), "", time.Minute)
	require.NoError(t, err)

	return worker, w
}

func TestWorkerManager_HandleTicketEventReceived(t *testing.T) {
	worker, w := setupWorker(t)
	ctx := context.Background()

	err := worker.handleTicketEventReceived(ctx, &events.TicketEventReceived{
		BaseEvent: events.NewBaseEvent(events.TicketEventReceivedEvent, ""),
		Event:     testutil.CreateTestEvent(models.TriggerTicketCreated),
	})
	require.NoError(t, err)

	executions, err := worker.runtime.Persistence.ExecutionRepository().ListByWorkflow(ctx, w.ID, 0)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.True(t, executions[0].Success)
}

func TestWorkerManager_IgnoresUnexpectedEvents(t *testing.T) {
	worker, _ := setupWorker(t)

	assert.NoError(t, worker.handleTicketEventReceived(context.Background(), "not an event"))
}

func TestWorkerManager_ConsumesEventBus(t *testing.T) {
	worker, w := setupWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- worker.Start(ctx)
	}()

	event := testutil.CreateTestEvent(models.TriggerTicketCreated)
	executions := worker.runtime.Persistence.ExecutionRepository()

	assert.Eventually(t, func() bool {
		received := events.TicketEventReceived{
			BaseEvent: events.NewBaseEvent(events.TicketEventReceivedEvent, ""),
			Event:     event,
		}
		_ = worker.runtime.EventBus.Publish(ctx, event.TicketID, received)

		list, err := executions.ListByWorkflow(context.Background(), w.ID, 0)

		return err == nil && len(list) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
