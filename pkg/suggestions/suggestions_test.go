package suggestions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autocrm/autocrm/pkg/models"
)

func paths(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Path)
	}

	return out
}

func TestFieldSuggestions(t *testing.T) {
	all := FieldSuggestions(models.TriggerTicketStatusChanged, "")
	assert.Len(t, all, len(CommonFields)+2)
	assert.Equal(t, "currentStatus", all[len(all)-1].Path)

	assert.Equal(t, []string{"ticket.status", "previousStatus", "currentStatus"},
		paths(FieldSuggestions(models.TriggerTicketStatusChanged, "STATUS")))

	assert.Equal(t, []string{"ticket.customer.id", "ticket.customer.email"},
		paths(FieldSuggestions(models.TriggerTicketCreated, "customer")))

	assert.Empty(t, FieldSuggestions(models.TriggerTicketCreated, "nothing-matches"))
	assert.Len(t, FieldSuggestions("unknown", ""), len(CommonFields))

	// Filtering never mutates the shared field tables.
	assert.Equal(t, "ticket.id", CommonFields[0].Path)
}

func TestLookupField(t *testing.T) {
	field, ok := LookupField("comment.author")
	assert.True(t, ok)
	assert.Equal(t, FieldString, field.Type)

	_, ok = LookupField("ticket.unknown")
	assert.False(t, ok)
}

func TestOperatorSuggestions(t *testing.T) {
	tests := []struct {
		fieldType FieldType
		expected  []models.Operator
	}{
		{FieldString, []models.Operator{"equals", "not_equals", "contains"}},
		{FieldNumber, []models.Operator{"equals", "not_equals", "greater_than", "less_than"}},
		{FieldDate, []models.Operator{"equals", "not_equals", "greater_than", "less_than"}},
		{FieldBoolean, []models.Operator{"equals"}},
		{FieldObject, []models.Operator{"equals", "not_equals"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			operators := OperatorSuggestions(tt.fieldType)
			assert.Equal(t, tt.expected, operators)

			for _, op := range operators {
				assert.True(t, op.IsValid(), op)
			}
		})
	}
}

func TestValueSuggestions(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		operator models.Operator
		expected []string
	}{
		{"status", Field{Path: "ticket.status", Type: FieldString}, models.OperatorEquals, []string{"new", "open", "in_progress", "resolved", "closed"}},
		{"priority", Field{Path: "ticket.priority", Type: FieldString}, models.OperatorContains, []string{"low", "medium", "high", "urgent"}},
		{"boolean", Field{Path: "ticket.vip", Type: FieldBoolean}, models.OperatorEquals, []string{"true", "false"}},
		{"date", Field{Path: "ticket.createdAt", Type: FieldDate}, models.OperatorLessThan, []string{"now", "today", "yesterday", "tomorrow"}},
		{"number threshold", Field{Path: "ticket.replies", Type: FieldNumber}, models.OperatorGreaterThan, []string{"0", "10", "20", "50", "100", "1000"}},
		{"number equals", Field{Path: "ticket.replies", Type: FieldNumber}, models.OperatorEquals, []string{"0", "1", "5", "10", "20", "50", "100"}},
		{"email contains", Field{Path: "ticket.customer.email", Type: FieldString}, models.OperatorContains, []string{"@gmail.com", "@yahoo.com", "@hotmail.com", "@company.com"}},
		{"string example", Field{Path: "ticket.title", Type: FieldString, Example: "Login not working"}, models.OperatorEquals, []string{"Login not working"}},
		{"string no example", Field{Path: "ticket.description", Type: FieldString}, models.OperatorEquals, []string{}},
		{"object", Field{Path: "previousValues", Type: FieldObject}, models.OperatorEquals, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValueSuggestions(tt.field, tt.operator))
		})
	}
}
