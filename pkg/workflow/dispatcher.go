package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/autocrm/autocrm/pkg/eventbus"
	"github.com/autocrm/autocrm/pkg/events"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
)

// eventCounter is an optional Recorder extension counting incoming events.
type eventCounter interface {
	EventReceived(eventType models.TriggerType)
}

// Dispatcher turns ticket events into recorded workflow executions.
type Dispatcher struct {
	logger     *slog.Logger
	engine     *Engine
	matcher    *TriggerMatcher
	workflows  persistence.WorkflowRepository
	executions persistence.ExecutionRepository
	publisher  eventbus.EventPublisher
}

// NewDispatcher creates a dispatcher. publisher may be nil, in which case no
// completion events are emitted.
func NewDispatcher(
	logger *slog.Logger,
	engine *Engine,
	workflows persistence.WorkflowRepository,
	executions persistence.ExecutionRepository,
	publisher eventbus.EventPublisher,
) *Dispatcher {
	return &Dispatcher{
		logger:     logger.With("module", "dispatcher"),
		engine:     engine,
		matcher:    NewTriggerMatcher(logger),
		workflows:  workflows,
		executions: executions,
		publisher:  publisher,
	}
}

// HandleEvent executes every active workflow whose trigger matches event, in
// repository order. Executions are returned even when recording one of them fails.
func (d *Dispatcher) HandleEvent(ctx context.Context, event models.TicketEvent) ([]*models.Execution, error) {
	if counter, ok := d.engine.recorder.(eventCounter); ok {
		counter.EventReceived(event.Type)
	}

	candidates, err := d.workflows.ListActiveByTrigger(ctx, event.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows for %s: %w", event.Type, err)
	}

	matched := d.matcher.MatchWorkflows(event, candidates)
	executions := make([]*models.Execution, 0, len(matched))

	var errs []error

	for _, w := range matched {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)

			break
		}

		execution, err := d.Execute(ctx, w, models.NewContextFromEvent(w.ID, event))
		if execution != nil {
			executions = append(executions, execution)
		}

		if err != nil {
			errs = append(errs, err)
		}
	}

	return executions, errors.Join(errs...)
}

// Execute runs w against wctx, stores the execution and publishes its outcome.
func (d *Dispatcher) Execute(ctx context.Context, w *models.Workflow, wctx models.WorkflowContext) (*models.Execution, error) {
	if w == nil {
		return nil, ErrNilWorkflow
	}

	if wctx.WorkflowID == "" {
		wctx.WorkflowID = w.ID
	}

	started := d.engine.clock.Now()
	result := d.engine.ExecuteWorkflow(ctx, w, wctx)
	finished := d.engine.clock.Now()

	execution := models.NewExecution(uuid.New().String(), wctx, result, started, finished)

	logger := d.logger.With("workflow_id", w.ID, "execution_id", execution.ID, "ticket_id", wctx.TicketID)

	var errs []error

	if d.executions != nil {
		if err := d.executions.Save(ctx, execution); err != nil {
			logger.ErrorContext(ctx, "Failed to save execution", "error", err)
			errs = append(errs, fmt.Errorf("failed to save execution %s: %w", execution.ID, err))
		}
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, w.ID, outcomeEvent(execution)); err != nil {
			logger.ErrorContext(ctx, "Failed to publish execution outcome", "error", err)
			errs = append(errs, fmt.Errorf("failed to publish execution %s: %w", execution.ID, err))
		}
	}

	return execution, errors.Join(errs...)
}

func outcomeEvent(execution *models.Execution) eventbus.Event {
	duration := execution.FinishedAt.Sub(execution.StartedAt)

	if execution.Success {
		return events.WorkflowExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, execution.WorkflowID),
			ExecutionID:   execution.ID,
			TicketID:      execution.TicketID,
			StepsExecuted: len(execution.StepResults),
			Duration:      duration,
		}
	}

	failed := make([]string, 0)

	for _, step := range execution.StepResults {
		if !step.Success {
			failed = append(failed, step.StepID)
		}
	}

	return events.WorkflowExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionFailedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		TicketID:    execution.TicketID,
		Error:       execution.Error,
		FailedSteps: failed,
		Duration:    duration,
	}
}
