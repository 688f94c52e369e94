// Package workflow interprets validated workflow graphs against ticket events.
package workflow

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/otelhelper"
	"github.com/autocrm/autocrm/pkg/validation"
)

// Engine executes workflows. It holds no per-execution state and is safe for
// concurrent ExecuteWorkflow calls.
type Engine struct {
	logger    *slog.Logger
	validator *validation.Validator
	clock     clockwork.Clock
	tickets   TicketMutator
	actions   ActionRunner
	notifiers map[models.NotificationType]Notifier
	recorder  Recorder
	tracer    trace.Tracer
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithTicketMutator(tickets TicketMutator) Option {
	return func(e *Engine) {
		e.tickets = tickets
	}
}

func WithActionRunner(actions ActionRunner) Option {
	return func(e *Engine) {
		e.actions = actions
	}
}

// WithNotifier registers the transport used by notification steps of type t.
func WithNotifier(t models.NotificationType, notifier Notifier) Option {
	return func(e *Engine) {
		e.notifiers[t] = notifier
	}
}

func WithValidator(validator *validation.Validator) Option {
	return func(e *Engine) {
		e.validator = validator
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:    logger.With("module", "workflow_engine"),
		validator: validation.New(),
		clock:     clockwork.NewRealClock(),
		notifiers: make(map[models.NotificationType]Notifier),
		recorder:  nopRecorder{},
		tracer:    otelhelper.NoopTracer(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExecuteWorkflow validates w and runs it depth-first from its entry steps.
// Each step runs at most once. Failures, including panics, are reported in the
// result; ExecuteWorkflow itself never fails.
func (e *Engine) ExecuteWorkflow(ctx context.Context, w *models.Workflow, wctx models.WorkflowContext) models.WorkflowResult {
	if w == nil {
		return models.WorkflowResult{Success: false, StepResults: []models.StepResult{}, Error: ErrNilWorkflow.Error()}
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, w.ID),
		attribute.String(otelhelper.WorkflowNameKey, w.Name),
		attribute.String(otelhelper.TicketIDKey, wctx.TicketID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", w.ID, "ticket_id", wctx.TicketID)
	started := e.clock.Now()

	validationResult := e.validator.Validate(w)
	if !validationResult.IsValid {
		logger.WarnContext(ctx, "Workflow failed validation", "errors", len(validationResult.Errors))

		result := models.WorkflowResult{
			Success:     false,
			StepResults: []models.StepResult{},
			Error:       validationResult.Summary(),
		}

		span.SetAttributes(attribute.Bool("autocrm.workflow.valid", false))
		otelhelper.SetOutcome(span, false, 0, 0)
		e.recorder.ExecutionFinished(w.ID, false, e.clock.Since(started))

		return result
	}

	logger.InfoContext(ctx, "Starting workflow execution")

	result := e.run(ctx, w, wctx, logger)

	otelhelper.SetOutcome(span, result.Success, len(result.StepResults), len(result.FailedSteps()))

	e.recorder.ExecutionFinished(w.ID, result.Success, e.clock.Since(started))

	logger.InfoContext(ctx, "Completed workflow execution",
		"success", result.Success,
		"steps_executed", len(result.StepResults))

	return result
}

func (e *Engine) run(ctx context.Context, w *models.Workflow, wctx models.WorkflowContext, logger *slog.Logger) models.WorkflowResult {
	entries := w.EntrySteps()

	stack := make([]string, 0, len(w.Steps))
	for i := len(entries) - 1; i >= 0; i-- {
		stack = append(stack, entries[i])
	}

	visited := make(map[string]bool, len(w.Steps))
	results := make([]models.StepResult, 0, len(w.Steps))
	success := true

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

		if err := ctx.Err(); err != nil {
			results = append(results, models.StepResult{StepID: id, Success: false, Error: err.Error()})
			success = false

			logger.WarnContext(ctx, "Execution cancelled", "step_id", id, "error", err)

			break
		}

		result, next := e.runStep(ctx, step, wctx)
		results = append(results, result)
		e.recorder.StepFinished(step.Type, result.Success)

		if !result.Success {
			success = false

			logger.WarnContext(ctx, "Step failed", "step_id", step.ID, "step_type", step.Type, "error", result.Error)

			if w.FailurePolicy() == models.FailurePolicyHaltAll {
				break
			}

			continue
		}

		logger.DebugContext(ctx, "Step completed", "step_id", step.ID, "step_type", step.Type, "next_steps", next)

		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}

	result := models.WorkflowResult{Success: success, StepResults: results}
	if !success {
		result.Error = firstError(results)
	}

	return result
}

func firstError(results []models.StepResult) string {
	for _, result := range results {
		if !result.Success {
			return "step " + result.StepID + " failed: " + result.Error
		}
	}

	return ""
}
