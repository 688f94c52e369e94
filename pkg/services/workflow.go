package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
	"github.com/autocrm/autocrm/pkg/validation"
	"github.com/autocrm/autocrm/pkg/workflow"
)

const (
	defaultExecutionLimit = 20
	maxExecutionLimit     = 100
)

// Scheduler is told about every saved or deleted workflow.
type Scheduler interface {
	Schedule(w *models.Workflow) error
	Unschedule(workflowID string)
}

type Workflow struct {
	persistence persistence.Persistence
	validator   *validation.Validator
	dispatcher  *workflow.Dispatcher
	tester      *workflow.Tester
	scheduler   Scheduler
	clock       clockwork.Clock
	logger      *slog.Logger
}

type Option func(*Workflow)

func WithScheduler(scheduler Scheduler) Option {
	return func(w *Workflow) {
		w.scheduler = scheduler
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(w *Workflow) {
		w.clock = clock
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(
	persistence persistence.Persistence,
	validator *validation.Validator,
	dispatcher *workflow.Dispatcher,
	logger *slog.Logger,
	opts ...Option,
) *Workflow {
	if validator == nil {
		validator = validation.New()
	}

	w := &Workflow{
		persistence: persistence,
		validator:   validator,
		dispatcher:  dispatcher,
		tester:      workflow.NewTester(logger, validator),
		clock:       clockwork.NewRealClock(),
		logger:      logger.With("module", "workflow_service"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every workflow, oldest first.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	found, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, ErrWorkflowNotFound
	}

	return found, nil
}

// Validate checks a definition without saving it.
func (w *Workflow) Validate(definition *models.Workflow) validation.Result {
	return w.validator.Validate(definition)
}

func (w *Workflow) validate(definition *models.Workflow) error {
	if definition == nil {
		return ErrWorkflowNil
	}

	if result := w.validator.Validate(definition); !result.IsValid {
		return &ValidationFailedError{Result: result}
	}

	return nil
}

// Create validates and stores a new workflow under a fresh ID.
func (w *Workflow) Create(ctx context.Context, definition *models.Workflow) (*models.Workflow, error) {
	if err := w.validate(definition); err != nil {
		return nil, err
	}

	now := w.clock.Now().UTC()
	definition.ID = uuid.New().String()
	definition.CreatedAt = now
	definition.UpdatedAt = now

	if definition.OnStepFailure == "" {
		definition.OnStepFailure = models.FailurePolicyHaltBranch
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Created workflow", "workflow_id", definition.ID, "trigger", definition.Trigger.Type)
	w.reschedule(ctx, definition)

	return definition, nil
}

// Update replaces the workflow stored under workflowID, keeping its creation time.
func (w *Workflow) Update(ctx context.Context, workflowID string, definition *models.Workflow) (*models.Workflow, error) {
	if err := w.validate(definition); err != nil {
		return nil, err
	}

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	definition.ID = workflowID
	definition.CreatedAt = existing.CreatedAt
	definition.UpdatedAt = w.clock.Now().UTC()

	if definition.Owner == "" {
		definition.Owner = existing.Owner
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Updated workflow", "workflow_id", workflowID)
	w.reschedule(ctx, definition)

	return definition, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	if _, err := w.FetchByID(ctx, workflowID); err != nil {
		return err
	}

	if err := w.persistence.WorkflowRepository().Delete(ctx, workflowID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	if w.scheduler != nil {
		w.scheduler.Unschedule(workflowID)
	}

	w.logger.InfoContext(ctx, "Deleted workflow", "workflow_id", workflowID)

	return nil
}

func (w *Workflow) reschedule(ctx context.Context, definition *models.Workflow) {
	if w.scheduler == nil {
		return
	}

	if err := w.scheduler.Schedule(definition); err != nil {
		w.logger.WarnContext(ctx, "Failed to schedule workflow", "workflow_id", definition.ID, "error", err)
	}
}

// Execute runs a stored workflow against wctx and records the execution.
func (w *Workflow) Execute(ctx context.Context, workflowID string, wctx models.WorkflowContext) (*models.Execution, error) {
	found, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	wctx.WorkflowID = workflowID

	if wctx.Data == nil {
		wctx.Data = map[string]any{}
	}

	return w.dispatcher.Execute(ctx, found, wctx)
}

// Test dry-runs a stored workflow against data without side effects.
func (w *Workflow) Test(ctx context.Context, workflowID string, data map[string]any) (workflow.DryRunResult, error) {
	found, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return workflow.DryRunResult{}, err
	}

	return w.tester.DryRun(found, data), nil
}

// Executions returns the latest executions of a workflow, newest first.
// A non-positive limit uses the default page size.
func (w *Workflow) Executions(ctx context.Context, workflowID string, limit int) ([]*models.Execution, error) {
	if _, err := w.FetchByID(ctx, workflowID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultExecutionLimit
	}

	if limit > maxExecutionLimit {
		limit = maxExecutionLimit
	}

	executions, err := w.persistence.ExecutionRepository().ListByWorkflow(ctx, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// Execution returns one recorded execution.
func (w *Workflow) Execution(ctx context.Context, executionID string) (*models.Execution, error) {
	return w.persistence.ExecutionRepository().GetByID(ctx, executionID)
}

// HandleEvent runs every active workflow matching a ticket event.
func (w *Workflow) HandleEvent(ctx context.Context, event models.TicketEvent) ([]*models.Execution, error) {
	if !event.Type.IsValid() {
		return nil, NewValidationError("HandleEvent", "INVALID_EVENT_TYPE",
			fmt.Sprintf("unsupported event type %q", event.Type), ErrInvalidEventType)
	}

	return w.dispatcher.HandleEvent(ctx, event)
}
