package models

// TriggerData is the trigger that started an execution.
type TriggerData struct {
	Type TriggerType    `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// WorkflowContext is the runtime data a workflow executes against.
type WorkflowContext struct {
	WorkflowID string         `json:"workflowId"`
	UserID     string         `json:"userId"`
	TeamID     string         `json:"teamId,omitempty"`
	TicketID   string         `json:"ticketId,omitempty"`
	Data       map[string]any `json:"data"`
	Trigger    *TriggerData   `json:"trigger,omitempty"`
}

// NewContextFromEvent builds the execution context for a ticket event.
func NewContextFromEvent(workflowID string, event TicketEvent) WorkflowContext {
	data := make(map[string]any, len(event.Payload)+1)
	for key, value := range event.Payload {
		data[key] = value
	}

	if _, ok := data["id"]; !ok && event.TicketID != "" {
		data["id"] = event.TicketID
	}

	return WorkflowContext{
		WorkflowID: workflowID,
		UserID:     event.UserID,
		TeamID:     event.TeamID,
		TicketID:   event.TicketID,
		Data:       data,
		Trigger: &TriggerData{
			Type: event.Type,
			Data: event.Payload,
		},
	}
}
