package eventbus_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/channels/gochannel"
	"github.com/autocrm/autocrm/pkg/eventbus"
	"github.com/autocrm/autocrm/pkg/events"
	"github.com/autocrm/autocrm/pkg/models"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(slog.Default(), pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_RoundTrip(t *testing.T) {
	bus := newBus(t)

	received := make(chan *events.TicketEventReceived, 1)

	require.NoError(t, bus.Handle(events.TicketEventReceivedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.TicketEventReceived)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	err := bus.Publish(ctx, "T-1", events.TicketEventReceived{
		BaseEvent: events.NewBaseEvent(events.TicketEventReceivedEvent, ""),
		Event:     models.TicketEvent{Type: models.TriggerTicketCreated, TicketID: "T-1"},
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "T-1", event.Event.TicketID)
		assert.Equal(t, models.TriggerTicketCreated, event.Event.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_IgnoresUnhandledTypes(t *testing.T) {
	bus := newBus(t)

	received := make(chan any, 2)

	require.NoError(t, bus.Handle(events.WorkflowExecutionFailedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "wf-1", events.WorkflowExecutionCompleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, "wf-1"),
	}))
	require.NoError(t, bus.Publish(ctx, "wf-1", events.WorkflowExecutionFailed{
		BaseEvent: events.NewBaseEvent(events.WorkflowExecutionFailedEvent, "wf-1"),
		Error:     "step close failed",
	}))

	select {
	case event := <-received:
		failed, ok := event.(*events.WorkflowExecutionFailed)
		require.True(t, ok)
		assert.Equal(t, "step close failed", failed.Error)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	assert.NotEmpty(t, bus.GenerateID())
}
