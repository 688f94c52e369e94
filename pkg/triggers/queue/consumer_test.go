package queue

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/testutil"
)

func TestNewConsumer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})

	_, err := NewConsumer(client, "", logger)
	assert.ErrorIs(t, err, ErrQueueRequired)

	consumer, err := NewConsumer(client, DefaultQueue, logger)
	require.NoError(t, err)
	assert.Equal(t, DefaultQueue, consumer.queue)

	assert.NoError(t, consumer.Stop(context.Background()), "stopping an idle consumer is a no-op")
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected models.TicketEvent
		err      error
	}{
		{
			name: "status change",
			body: `{"type":"ticket_status_changed","ticketId":"T-1","userId":"u-1","payload":{"previousStatus":"open","status":"resolved"}}`,
			expected: models.TicketEvent{
				Type:     models.TriggerTicketStatusChanged,
				TicketID: "T-1",
				UserID:   "u-1",
				Payload:  map[string]any{"previousStatus": "open", "status": "resolved"},
			},
		},
		{
			name: "unknown type",
			body: `{"type":"ticket_exploded"}`,
			err:  ErrInvalidEventType,
		},
		{
			name: "missing type",
			body: `{"ticketId":"T-1"}`,
			err:  ErrInvalidEventType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Decode([]byte(tt.body))

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, event)
		})
	}

	_, err := Decode([]byte("not json"))
	assert.ErrorContains(t, err, "failed to decode ticket event")
}

func TestConsumer_DeliversInOrder(t *testing.T) {
	client := testutil.RedisClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer, err := NewConsumer(client, "test:"+uuid.NewString(), slog.Default())
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		received []string
	)

	handler := func(_ context.Context, event models.TicketEvent) error {
		mu.Lock()
		defer mu.Unlock()

		received = append(received, event.TicketID)

		if event.TicketID == "T-2" {
			return errors.New("handler failure does not stop the consumer")
		}

		return nil
	}

	require.NoError(t, consumer.Start(ctx, handler))
	assert.ErrorIs(t, consumer.Start(ctx, handler), ErrConsumerStarted)

	require.NoError(t, client.RPush(ctx, consumer.queue, "garbage").Err())

	for _, id := range []string{"T-1", "T-2", "T-3"} {
		require.NoError(t, consumer.Push(ctx, models.TicketEvent{Type: models.TriggerTicketCreated, TicketID: id}))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(received) == 3
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, consumer.Stop(ctx))

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{"T-1", "T-2", "T-3"}, received)
}
