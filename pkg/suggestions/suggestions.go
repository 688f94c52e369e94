// Package suggestions offers field, operator and value hints for building workflow conditions.
package suggestions

import (
	"slices"
	"strings"

	"github.com/autocrm/autocrm/pkg/models"
)

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
)

// Field describes a path a condition can reference.
type Field struct {
	Path        string    `json:"path"`
	Description string    `json:"description"`
	Type        FieldType `json:"type"`
	Example     string    `json:"example,omitempty"`
}

// CommonFields are available to every trigger type.
var CommonFields = []Field{
	{Path: "ticket.id", Description: "Unique identifier of the ticket", Type: FieldString, Example: "ticket-123"},
	{Path: "ticket.title", Description: "Title of the ticket", Type: FieldString, Example: "Login not working"},
	{Path: "ticket.description", Description: "Full description of the ticket", Type: FieldString},
	{Path: "ticket.status", Description: "Current status of the ticket", Type: FieldString, Example: "open"},
	{Path: "ticket.priority", Description: "Priority level of the ticket", Type: FieldString, Example: "high"},
	{Path: "ticket.assignedTo", Description: "ID of the agent assigned to the ticket", Type: FieldString, Example: "agent-456"},
	{Path: "ticket.customer.id", Description: "ID of the customer who created the ticket", Type: FieldString, Example: "customer-789"},
	{Path: "ticket.customer.email", Description: "Email of the customer", Type: FieldString, Example: "customer@example.com"},
	{Path: "ticket.createdAt", Description: "When the ticket was created", Type: FieldDate, Example: "2024-03-14T12:00:00Z"},
	{Path: "ticket.updatedAt", Description: "When the ticket was last updated", Type: FieldDate, Example: "2024-03-14T14:30:00Z"},
}

// TriggerFields are the extra fields each trigger type carries.
var TriggerFields = map[models.TriggerType][]Field{
	models.TriggerTicketCreated: {},
	models.TriggerTicketUpdated: {
		{Path: "previousValues", Description: "Previous values before the update", Type: FieldObject},
	},
	models.TriggerTicketStatusChanged: {
		{Path: "previousStatus", Description: "Previous status before the change", Type: FieldString, Example: "open"},
		{Path: "currentStatus", Description: "New status after the change", Type: FieldString, Example: "in_progress"},
	},
	models.TriggerTicketPriorityChanged: {
		{Path: "previousPriority", Description: "Previous priority before the change", Type: FieldString, Example: "medium"},
		{Path: "currentPriority", Description: "New priority after the change", Type: FieldString, Example: "high"},
	},
	models.TriggerTicketAssigned: {
		{Path: "previousAssignee", Description: "Previous assignee before the change", Type: FieldString, Example: "agent-123"},
	},
	models.TriggerTicketCommented: {
		{Path: "comment.content", Description: "Content of the new comment", Type: FieldString},
		{Path: "comment.author", Description: "ID of the comment author", Type: FieldString, Example: "agent-456"},
	},
	models.TriggerScheduled: {
		{Path: "currentTime", Description: "Current time when the scheduled workflow runs", Type: FieldDate, Example: "2024-03-14T00:00:00Z"},
		{Path: "lastExecutionTime", Description: "When the workflow was last executed", Type: FieldDate, Example: "2024-03-13T00:00:00Z"},
	},
}

// FieldSuggestions returns the fields available for trigger whose path
// contains input, ignoring case. An empty input returns every field.
func FieldSuggestions(trigger models.TriggerType, input string) []Field {
	available := make([]Field, 0, len(CommonFields)+len(TriggerFields[trigger]))
	available = append(available, CommonFields...)
	available = append(available, TriggerFields[trigger]...)

	if input == "" {
		return available
	}

	needle := strings.ToLower(input)

	return slices.DeleteFunc(available, func(f Field) bool {
		return !strings.Contains(strings.ToLower(f.Path), needle)
	})
}

// LookupField finds a known field by path across all trigger types.
func LookupField(path string) (Field, bool) {
	for _, f := range CommonFields {
		if f.Path == path {
			return f, true
		}
	}

	for _, trigger := range models.TriggerTypes {
		for _, f := range TriggerFields[trigger] {
			if f.Path == path {
				return f, true
			}
		}
	}

	return Field{}, false
}

// OperatorSuggestions returns the condition operators that make sense for fieldType.
func OperatorSuggestions(fieldType FieldType) []models.Operator {
	switch fieldType {
	case FieldString:
		return []models.Operator{models.OperatorEquals, models.OperatorNotEquals, models.OperatorContains}
	case FieldNumber, FieldDate:
		return []models.Operator{models.OperatorEquals, models.OperatorNotEquals, models.OperatorGreaterThan, models.OperatorLessThan}
	case FieldBoolean:
		return []models.Operator{models.OperatorEquals}
	default:
		return []models.Operator{models.OperatorEquals, models.OperatorNotEquals}
	}
}

// ValueSuggestions returns example comparison values for field and operator.
func ValueSuggestions(field Field, operator models.Operator) []string {
	switch field.Path {
	case "ticket.status":
		return []string{"new", "open", "in_progress", "resolved", "closed"}
	case "ticket.priority":
		return []string{"low", "medium", "high", "urgent"}
	case "ticket.team_id":
		return []string{"current_team"}
	case "ticket.assigned_to":
		return []string{"current_user", "unassigned"}
	}

	switch field.Type {
	case FieldBoolean:
		return []string{"true", "false"}
	case FieldDate:
		return []string{"now", "today", "yesterday", "tomorrow"}
	case FieldNumber:
		if operator == models.OperatorGreaterThan || operator == models.OperatorLessThan {
			return []string{"0", "10", "20", "50", "100", "1000"}
		}

		return []string{"0", "1", "5", "10", "20", "50", "100"}
	case FieldString:
		if operator == models.OperatorContains {
			switch {
			case strings.Contains(field.Path, "email"):
				return []string{"@gmail.com", "@yahoo.com", "@hotmail.com", "@company.com"}
			case strings.Contains(field.Path, "name"):
				return []string{"admin", "support", "sales", "test"}
			default:
				return []string{}
			}
		}

		if field.Example != "" {
			return []string{field.Example}
		}

		return []string{}
	default:
		return []string{}
	}
}
