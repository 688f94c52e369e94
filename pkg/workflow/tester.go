package workflow

import (
	"log/slog"

	"github.com/autocrm/autocrm/pkg/conditions"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/validation"
)

// StepTestResult is the simulated outcome of a single step.
type StepTestResult struct {
	StepID    string         `json:"stepId"`
	Success   bool           `json:"success"`
	NextSteps []string       `json:"nextSteps"`
	Results   map[string]any `json:"results,omitempty"`
}

// DryRunResult reports what a workflow would do for the given data.
type DryRunResult struct {
	Valid     bool               `json:"valid"`
	Errors    []validation.Error `json:"errors,omitempty"`
	Triggered bool               `json:"triggered"`
	Steps     []StepTestResult   `json:"steps"`
}

// Tester simulates workflows without side effects. Conditions are evaluated
// against the supplied data; actions, delays and notifications are only reported.
type Tester struct {
	logger    *slog.Logger
	validator *validation.Validator
}

func NewTester(logger *slog.Logger, validator *validation.Validator) *Tester {
	if validator == nil {
		validator = validation.New()
	}

	return &Tester{
		logger:    logger.With("module", "workflow_tester"),
		validator: validator,
	}
}

// TestTrigger reports whether data would fire trigger.
func (t *Tester) TestTrigger(trigger models.WorkflowTrigger, data map[string]any) bool {
	return MatchTrigger(trigger, data)
}

// TestStep simulates step against data.
func (t *Tester) TestStep(step *models.WorkflowStep, data map[string]any) StepTestResult {
	result := StepTestResult{StepID: step.ID, NextSteps: []string{}}

	switch config := step.Config.(type) {
	case *models.ConditionConfig:
		matched, err := conditions.EvaluateCondition(config, data)
		if err != nil {
			result.Results = map[string]any{"error": err.Error()}

			return result
		}

		result.Success = true
		result.Results = map[string]any{"condition": matched}

		if matched {
			result.NextSteps = nonNil(step.NextSteps)
		} else {
			result.NextSteps = nonNil(step.AlternateSteps)
		}
	case *models.ActionConfig:
		result.Success = true
		result.NextSteps = nonNil(step.NextSteps)
		result.Results = map[string]any{"action": "simulated"}
	case *models.DelayConfig:
		result.Success = true
		result.NextSteps = nonNil(step.NextSteps)
		result.Results = map[string]any{"delayed": true}
	case *models.NotificationConfig:
		result.Success = true
		result.NextSteps = nonNil(step.NextSteps)
		result.Results = map[string]any{
			"notificationSent": true,
			"recipients":       config.Recipients,
		}
	default:
		result.Results = map[string]any{"error": (&UnknownStepTypeError{Type: step.Type}).Error()}
	}

	return result
}

// DryRun validates w, checks its trigger against data and walks the graph from
// the entry steps in the same order the engine would.
func (t *Tester) DryRun(w *models.Workflow, data map[string]any) DryRunResult {
	if w == nil {
		return DryRunResult{Errors: []validation.Error{{Field: "workflow", Message: ErrNilWorkflow.Error()}}, Steps: []StepTestResult{}}
	}

	validationResult := t.validator.Validate(w)
	if !validationResult.IsValid {
		return DryRunResult{Errors: validationResult.Errors, Steps: []StepTestResult{}}
	}

	out := DryRunResult{
		Valid:     true,
		Triggered: t.TestTrigger(w.Trigger, data),
		Steps:     make([]StepTestResult, 0, len(w.Steps)),
	}

	entries := w.EntrySteps()

	stack := make([]string, 0, len(w.Steps))
	for i := len(entries) - 1; i >= 0; i-- {
		stack = append(stack, entries[i])
	}

	visited := make(map[string]bool, len(w.Steps))

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[id] {
			continue
		}

		visited[id] = true

		step, ok := w.StepByID(id)
		if !ok {
			continue
		}

		result := t.TestStep(step, data)
		out.Steps = append(out.Steps, result)

		for i := len(result.NextSteps) - 1; i >= 0; i-- {
			if !visited[result.NextSteps[i]] {
				stack = append(stack, result.NextSteps[i])
			}
		}
	}

	t.logger.Debug("Completed dry run", "workflow_id", w.ID, "triggered", out.Triggered, "steps", len(out.Steps))

	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}

	return ids
}
