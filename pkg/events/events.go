// Package events defines the messages exchanged over the event bus.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/autocrm/autocrm/pkg/models"
)

type EventType string

// Topic carries every AutoCRM event; consumers dispatch on EventTypeMetadataKey.
const Topic = "autocrm.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Ticket lifecycle events ingested from the help desk.
	TicketEventReceivedEvent EventType = "ticket.event"

	// Workflow execution log events.
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"

	// Delivery requests for external transports.
	EmailNotificationRequestedEvent EventType = "notification.email.requested"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// TicketEventReceived wraps an incoming ticket event for asynchronous dispatch.
type TicketEventReceived struct {
	BaseEvent

	Event models.TicketEvent `json:"event"`
}

func (e TicketEventReceived) GetType() EventType {
	return TicketEventReceivedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID   string        `json:"execution_id"`
	TicketID      string        `json:"ticket_id,omitempty"`
	StepsExecuted int           `json:"steps_executed"`
	Duration      time.Duration `json:"duration"`
}

func (e WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	TicketID    string        `json:"ticket_id,omitempty"`
	Error       string        `json:"error"`
	FailedSteps []string      `json:"failed_steps"`
	Duration    time.Duration `json:"duration"`
}

func (e WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

// EmailNotificationRequested asks an external mailer to deliver a rendered message.
type EmailNotificationRequested struct {
	BaseEvent

	TicketID   string   `json:"ticket_id,omitempty"`
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

func (e EmailNotificationRequested) GetType() EventType {
	return EmailNotificationRequestedEvent
}
