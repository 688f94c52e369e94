// Package eventbus provides event-driven communication between the API, the worker and external transports.
package eventbus

import (
	"context"

	"github.com/autocrm/autocrm/pkg/events"
)

// Event is any message carried on events.Topic.
type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes events. key partitions the stream, e.g. a ticket
// or workflow id, so events for the same key keep their order on Kafka.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber routes incoming events to one handler per event type.
// Handlers must be registered before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event, e.g. *events.TicketEventReceived.
// A returned error nacks the message.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
