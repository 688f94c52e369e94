// Package queue ingests ticket events pushed onto a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/autocrm/autocrm/pkg/models"
)

const DefaultQueue = "autocrm:ticket-events"

var (
	ErrQueueRequired    = errors.New("queue name is required")
	ErrConsumerStarted  = errors.New("queue consumer already started")
	ErrInvalidEventType = errors.New("unsupported ticket event type")
)

// Handler receives every well-formed event popped from the queue.
type Handler func(ctx context.Context, event models.TicketEvent) error

// Consumer pops ticket events with BLPOP and hands them to a Handler in queue order.
type Consumer struct {
	client      redis.UniversalClient
	queue       string
	pollTimeout time.Duration
	retryDelay  time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewConsumer(client redis.UniversalClient, queue string, logger *slog.Logger) (*Consumer, error) {
	if queue == "" {
		return nil, ErrQueueRequired
	}

	return &Consumer{
		client:      client,
		queue:       queue,
		pollTimeout: time.Second,
		retryDelay:  time.Second,
		stopCh:      make(chan struct{}),
		logger:      logger.With("module", "queue_consumer", "queue", queue),
	}, nil
}

// Push appends event to the tail of the queue.
func (c *Consumer) Push(ctx context.Context, event models.TicketEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket event: %w", err)
	}

	if err := c.client.RPush(ctx, c.queue, body).Err(); err != nil {
		return fmt.Errorf("failed to push ticket event: %w", err)
	}

	return nil
}

func (c *Consumer) Start(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrConsumerStarted
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.started = true

	c.wg.Add(1)

	go c.consume(ctx, handler)

	c.logger.InfoContext(ctx, "Started queue consumer")

	return nil
}

func (c *Consumer) consume(ctx context.Context, handler Handler) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
		}

		if err := c.processMessage(ctx, handler); err != nil {
			if ctx.Err() != nil {
				continue
			}

			c.logger.ErrorContext(ctx, "Error reading from queue", "error", err)

			select {
			case <-time.After(c.retryDelay):
			case <-c.stopCh:
			case <-ctx.Done():
			}
		}
	}
}

// processMessage returns an error only when Redis itself fails. Malformed
// messages and handler failures are logged and dropped.
func (c *Consumer) processMessage(ctx context.Context, handler Handler) error {
	result, err := c.client.BLPop(ctx, c.pollTimeout, c.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	event, err := Decode([]byte(result[1]))
	if err != nil {
		c.logger.WarnContext(ctx, "Dropping malformed ticket event", "error", err)

		return nil
	}

	if err := handler(ctx, event); err != nil {
		c.logger.ErrorContext(ctx, "Error handling ticket event",
			"ticket_id", event.TicketID,
			"event_type", event.Type,
			"error", err)
	}

	return nil
}

// Decode parses a queued ticket event and checks its type.
func Decode(body []byte) (models.TicketEvent, error) {
	var event models.TicketEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to decode ticket event: %w", err)
	}

	if !event.Type.IsValid() {
		return event, fmt.Errorf("%w: %q", ErrInvalidEventType, event.Type)
	}

	return event, nil
}

// Stop waits for the consumer loop to exit. It is safe to call more than once.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}

	c.logger.InfoContext(ctx, "Stopping queue consumer")

	close(c.stopCh)
	c.wg.Wait()

	c.started = false
	c.stopCh = make(chan struct{})

	return nil
}
