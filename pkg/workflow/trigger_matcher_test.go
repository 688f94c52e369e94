package workflow

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/testutil"
)

func TestMatchTrigger(t *testing.T) {
	tests := []struct {
		name       string
		trigger    models.TriggerType
		conditions map[string]any
		payload    map[string]any
		expected   bool
	}{
		{
			name:     "ticket created always matches",
			trigger:  models.TriggerTicketCreated,
			payload:  map[string]any{},
			expected: true,
		},
		{
			name:     "comment always matches",
			trigger:  models.TriggerTicketCommented,
			payload:  map[string]any{"comment": "hello"},
			expected: true,
		},
		{
			name:       "status transition matches",
			trigger:    models.TriggerTicketStatusChanged,
			conditions: map[string]any{"fromStatus": "open", "toStatus": "resolved"},
			payload:    map[string]any{"previousStatus": "open", "currentStatus": "resolved"},
			expected:   true,
		},
		{
			name:       "status transition falls back to status",
			trigger:    models.TriggerTicketStatusChanged,
			conditions: map[string]any{"fromStatus": "open", "toStatus": "resolved"},
			payload:    map[string]any{"previousStatus": "open", "status": "resolved"},
			expected:   true,
		},
		{
			name:       "status transition wrong target",
			trigger:    models.TriggerTicketStatusChanged,
			conditions: map[string]any{"fromStatus": "open", "toStatus": "resolved"},
			payload:    map[string]any{"previousStatus": "open", "currentStatus": "pending"},
			expected:   false,
		},
		{
			name:       "any matches every previous status",
			trigger:    models.TriggerTicketStatusChanged,
			conditions: map[string]any{"fromStatus": "any", "toStatus": "closed"},
			payload:    map[string]any{"previousStatus": "pending", "currentStatus": "closed"},
			expected:   true,
		},
		{
			name:       "missing condition only matches missing value",
			trigger:    models.TriggerTicketStatusChanged,
			conditions: map[string]any{"toStatus": "closed"},
			payload:    map[string]any{"previousStatus": "open", "currentStatus": "closed"},
			expected:   false,
		},
		{
			name:       "priority transition matches",
			trigger:    models.TriggerTicketPriorityChanged,
			conditions: map[string]any{"fromPriority": "any", "toPriority": "urgent"},
			payload:    map[string]any{"previousPriority": "low", "currentPriority": "urgent"},
			expected:   true,
		},
		{
			name:       "priority transition mismatch",
			trigger:    models.TriggerTicketPriorityChanged,
			conditions: map[string]any{"fromPriority": "low", "toPriority": "urgent"},
			payload:    map[string]any{"previousPriority": "high", "priority": "urgent"},
			expected:   false,
		},
		{
			name:     "unknown trigger type never matches",
			trigger:  models.TriggerType("ticket_merged"),
			payload:  map[string]any{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := models.WorkflowTrigger{Type: tt.trigger, Conditions: tt.conditions}
			assert.Equal(t, tt.expected, MatchTrigger(trigger, tt.payload))
		})
	}
}

func TestTriggerMatcher_MatchWorkflows(t *testing.T) {
	resolved := testutil.CreateTestWorkflow(
		testutil.WithWorkflowName("resolved"),
		testutil.WithTrigger(models.TriggerTicketStatusChanged, map[string]any{"fromStatus": "any", "toStatus": "resolved"}),
	)
	closed := testutil.CreateTestWorkflow(
		testutil.WithWorkflowName("closed"),
		testutil.WithTrigger(models.TriggerTicketStatusChanged, map[string]any{"fromStatus": "any", "toStatus": "closed"}),
	)
	inactive := testutil.CreateTestWorkflow(
		testutil.WithWorkflowName("inactive"),
		testutil.WithActive(false),
		testutil.WithTrigger(models.TriggerTicketStatusChanged, map[string]any{"fromStatus": "any", "toStatus": "resolved"}),
	)
	created := testutil.CreateTestWorkflow(testutil.WithWorkflowName("created"))
	anyResolved := testutil.CreateTestWorkflow(
		testutil.WithWorkflowName("any-resolved"),
		testutil.WithTrigger(models.TriggerTicketStatusChanged, map[string]any{"fromStatus": "any", "toStatus": "any"}),
	)

	event := testutil.CreateTestEvent(models.TriggerTicketStatusChanged, testutil.WithPayload(map[string]any{
		"previousStatus": "open",
		"currentStatus":  "resolved",
	}))

	matcher := NewTriggerMatcher(slog.Default())
	matched := matcher.MatchWorkflows(event, []*models.Workflow{resolved, nil, closed, inactive, created, anyResolved})

	names := make([]string, 0, len(matched))
	for _, w := range matched {
		names = append(names, w.Name)
	}

	assert.Equal(t, []string{"resolved", "any-resolved"}, names)
	assert.Empty(t, matcher.MatchWorkflows(event, nil))
}
