package workflow

import (
	"log/slog"

	"github.com/autocrm/autocrm/pkg/fieldpath"
	"github.com/autocrm/autocrm/pkg/models"
)

// MatchTrigger reports whether payload satisfies the trigger conditions.
// Status and priority changes compare the previous/current values carried in
// the payload against the from/to conditions, where "any" matches everything.
func MatchTrigger(trigger models.WorkflowTrigger, payload map[string]any) bool {
	switch trigger.Type {
	case models.TriggerTicketCreated,
		models.TriggerTicketUpdated,
		models.TriggerTicketAssigned,
		models.TriggerTicketCommented,
		models.TriggerScheduled:
		return true
	case models.TriggerTicketStatusChanged:
		return matchTransition(trigger, payload, "fromStatus", "toStatus", "previousStatus", "currentStatus", "status")
	case models.TriggerTicketPriorityChanged:
		return matchTransition(trigger, payload, "fromPriority", "toPriority", "previousPriority", "currentPriority", "priority")
	default:
		return false
	}
}

func matchTransition(trigger models.WorkflowTrigger, payload map[string]any, fromKey, toKey, previousKey, currentKey, fallbackKey string) bool {
	current, ok := payload[currentKey]
	if !ok {
		current = payload[fallbackKey]
	}

	return matchValue(trigger.Condition(fromKey), payload[previousKey]) &&
		matchValue(trigger.Condition(toKey), current)
}

func matchValue(expected, actual any) bool {
	if s, ok := expected.(string); ok && s == models.AnyValue {
		return true
	}

	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	return fieldpath.String(expected) == fieldpath.String(actual)
}

// TriggerMatcher selects the workflows an incoming ticket event should run.
type TriggerMatcher struct {
	logger *slog.Logger
}

func NewTriggerMatcher(logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// MatchWorkflows returns the active workflows whose trigger matches event, in input order.
func (tm *TriggerMatcher) MatchWorkflows(event models.TicketEvent, workflows []*models.Workflow) []*models.Workflow {
	matched := make([]*models.Workflow, 0)

	tm.logger.Debug("Matching ticket event against workflows",
		"event_type", event.Type,
		"ticket_id", event.TicketID,
		"workflows_count", len(workflows))

	for _, workflow := range workflows {
		if workflow == nil || !workflow.IsActive || workflow.Trigger.Type != event.Type {
			continue
		}

		if !MatchTrigger(workflow.Trigger, event.Payload) {
			continue
		}

		matched = append(matched, workflow)

		tm.logger.Debug("Found matching workflow",
			"workflow_id", workflow.ID,
			"workflow_name", workflow.Name)
	}

	tm.logger.Info("Completed trigger matching",
		"event_type", event.Type,
		"ticket_id", event.TicketID,
		"matches_found", len(matched))

	return matched
}
