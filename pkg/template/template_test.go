package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"id":       "T-1",
		"status":   "resolved",
		"count":    float64(3),
		"ratio":    0.25,
		"customer": map[string]any{"name": "Alice", "tier": "gold"},
		"tags":     []any{"billing", "vip"},
		"assignee": nil,
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"simple", "Ticket ${id}", "Ticket T-1"},
		{"multiple", "Urgent ticket ${id} ${status}", "Urgent ticket T-1 resolved"},
		{"nested path", "Hello ${customer.name}", "Hello Alice"},
		{"whitespace trimmed", "Hello ${ customer.name }", "Hello Alice"},
		{"integral float", "${count} replies", "3 replies"},
		{"fractional float", "ratio ${ratio}", "ratio 0.25"},
		{"slice index", "first tag ${tags.0}", "first tag billing"},
		{"map encoded", "${customer}", `{"name":"Alice","tier":"gold"}`},
		{"slice encoded", "${tags}", `["billing","vip"]`},
		{"unresolved kept", "Assigned to ${assignee.name}", "Assigned to ${assignee.name}"},
		{"null kept", "Assigned to ${assignee}", "Assigned to ${assignee}"},
		{"mixed", "${id} for ${missing}", "T-1 for ${missing}"},
		{"unterminated", "Ticket ${id", "Ticket ${id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, data))
		})
	}
}

func TestRender_NilData(t *testing.T) {
	assert.Equal(t, "Ticket ${id}", Render("Ticket ${id}", nil))
}

func TestRenderValue(t *testing.T) {
	data := map[string]any{"id": "T-9", "agent": "sam"}

	value := map[string]any{
		"text":    "Ticket ${id}",
		"targets": []any{"${agent}", 3},
		"count":   2,
	}

	rendered := RenderValue(value, data)

	assert.Equal(t, map[string]any{
		"text":    "Ticket T-9",
		"targets": []any{"sam", 3},
		"count":   2,
	}, rendered)
	assert.Equal(t, "Ticket ${id}", value["text"])
}
