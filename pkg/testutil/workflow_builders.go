// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/autocrm/autocrm/pkg/models"
)

// CreateTestWorkflow creates a valid single-step workflow that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "Workflow used in tests",
		Trigger:     models.WorkflowTrigger{Type: models.TriggerTicketCreated},
		Steps: []*models.WorkflowStep{
			ActionStep("close", models.ActionCloseTicket, "", nil, WithStart()),
		},
		IsActive:  true,
		Owner:     "user-1",
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithSteps replaces the workflow steps.
func WithSteps(steps ...*models.WorkflowStep) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Steps = steps
	}
}

// WithTrigger sets the workflow trigger.
func WithTrigger(triggerType models.TriggerType, conditions map[string]any) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Trigger = models.WorkflowTrigger{Type: triggerType, Conditions: conditions}
	}
}

// WithWorkflowName sets the workflow name.
func WithWorkflowName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// WithActive sets the workflow active flag.
func WithActive(active bool) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.IsActive = active
	}
}

// WithFailurePolicy sets onStepFailure.
func WithFailurePolicy(policy models.FailurePolicy) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.OnStepFailure = policy
	}
}

// ConditionStep creates a condition step comparing field against value.
func ConditionStep(id, field string, op models.Operator, value any, overrides ...func(*models.WorkflowStep)) *models.WorkflowStep {
	return newStep(id, models.StepTypeCondition, &models.ConditionConfig{
		Field:    field,
		Operator: op,
		Value:    value,
	}, overrides)
}

// ActionStep creates an action step.
func ActionStep(id string, action models.ActionType, field string, value any, overrides ...func(*models.WorkflowStep)) *models.WorkflowStep {
	return newStep(id, models.StepTypeAction, &models.ActionConfig{
		Action: action,
		Field:  field,
		Value:  value,
	}, overrides)
}

// CustomActionStep creates an action step calling a registered custom action.
func CustomActionStep(id, name string, params map[string]any, overrides ...func(*models.WorkflowStep)) *models.WorkflowStep {
	return newStep(id, models.StepTypeAction, &models.ActionConfig{
		Action: models.ActionCustom,
		Custom: name,
		Params: params,
	}, overrides)
}

// DelayStep creates a delay step.
func DelayStep(id string, duration int, unit models.DelayUnit, overrides ...func(*models.WorkflowStep)) *models.WorkflowStep {
	return newStep(id, models.StepTypeDelay, &models.DelayConfig{
		Duration: duration,
		Unit:     unit,
	}, overrides)
}

// NotificationStep creates a notification step.
func NotificationStep(id string, notificationType models.NotificationType, tpl string, recipients []string, overrides ...func(*models.WorkflowStep)) *models.WorkflowStep {
	return newStep(id, models.StepTypeNotification, &models.NotificationConfig{
		Type:       notificationType,
		Template:   tpl,
		Recipients: recipients,
	}, overrides)
}

// WithStart flags the step as an entry step.
func WithStart() func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.IsStart = true
	}
}

// WithNext sets the step's nextSteps.
func WithNext(ids ...string) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.NextSteps = ids
	}
}

// WithAlternate sets the step's alternateSteps.
func WithAlternate(ids ...string) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.AlternateSteps = ids
	}
}

func newStep(id string, stepType models.StepType, config models.StepConfig, overrides []func(*models.WorkflowStep)) *models.WorkflowStep {
	step := &models.WorkflowStep{
		ID:        id,
		Type:      stepType,
		NextSteps: []string{},
		Config:    config,
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// CreateTestEvent creates a ticket event with default values that can be overridden.
func CreateTestEvent(eventType models.TriggerType, overrides ...func(*models.TicketEvent)) models.TicketEvent {
	event := models.TicketEvent{
		Type:     eventType,
		TicketID: "T-1",
		UserID:   "user-1",
		TeamID:   "team-1",
		Payload:  map[string]any{"id": "T-1"},
	}

	for _, override := range overrides {
		override(&event)
	}

	return event
}

// WithPayload merges values into the event payload.
func WithPayload(values map[string]any) func(*models.TicketEvent) {
	return func(e *models.TicketEvent) {
		for key, value := range values {
			e.Payload[key] = value
		}
	}
}
