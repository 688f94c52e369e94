package models

// TriggerType identifies the ticket event a workflow reacts to.
type TriggerType string

const (
	TriggerTicketCreated         TriggerType = "ticket_created"
	TriggerTicketUpdated         TriggerType = "ticket_updated"
	TriggerTicketStatusChanged   TriggerType = "ticket_status_changed"
	TriggerTicketPriorityChanged TriggerType = "ticket_priority_changed"
	TriggerTicketAssigned        TriggerType = "ticket_assigned"
	TriggerTicketCommented       TriggerType = "ticket_commented"
	TriggerScheduled             TriggerType = "scheduled"
)

// TriggerTypes lists every supported trigger type in display order.
var TriggerTypes = []TriggerType{
	TriggerTicketCreated,
	TriggerTicketUpdated,
	TriggerTicketStatusChanged,
	TriggerTicketPriorityChanged,
	TriggerTicketAssigned,
	TriggerTicketCommented,
	TriggerScheduled,
}

// IsValid reports whether t is one of the supported trigger types.
func (t TriggerType) IsValid() bool {
	for _, known := range TriggerTypes {
		if t == known {
			return true
		}
	}

	return false
}

// AnyValue matches every value in status and priority transition conditions.
const AnyValue = "any"

// Schedule kinds for scheduled triggers.
const (
	ScheduleTypeInterval = "interval"
	ScheduleTypeCron     = "cron"
)

// WorkflowTrigger decides whether a workflow runs for an incoming event.
// The shape of Conditions depends on Type, e.g. fromStatus/toStatus for
// status changes or scheduleType/interval/intervalType/cron for schedules.
type WorkflowTrigger struct {
	Type       TriggerType    `json:"type"                 validate:"required"`
	Conditions map[string]any `json:"conditions,omitempty"`
}

// Condition returns a trigger condition value, or nil when unset.
func (t WorkflowTrigger) Condition(key string) any {
	if t.Conditions == nil {
		return nil
	}

	return t.Conditions[key]
}

// TicketEvent is an incoming ticket lifecycle event.
type TicketEvent struct {
	Type     TriggerType    `json:"type"     validate:"required"`
	TicketID string         `json:"ticketId"`
	UserID   string         `json:"userId"`
	TeamID   string         `json:"teamId"`
	Payload  map[string]any `json:"payload"`
}
