package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/mocks"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
	"github.com/autocrm/autocrm/pkg/persistence/file"
	"github.com/autocrm/autocrm/pkg/testutil"
	"github.com/autocrm/autocrm/pkg/workflow"
)

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Schedule(w *models.Workflow) error {
	return m.Called(w.ID).Error(0)
}

func (m *mockScheduler) Unschedule(workflowID string) {
	m.Called(workflowID)
}

func newService(t *testing.T, opts ...Option) (*Workflow, *file.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := slog.Default()
	engine := workflow.NewEngine(logger, workflow.WithTicketMutator(p.TicketRepository()))
	dispatcher := workflow.NewDispatcher(logger, engine, p.WorkflowRepository(), p.ExecutionRepository(), nil)

	return NewWorkflow(p, nil, dispatcher, logger, opts...), p
}

func TestNewWorkflow(t *testing.T) {
	service, p := newService(t)

	assert.NotNil(t, service)
	assert.Equal(t, p, service.persistence)
	assert.NotNil(t, service.validator)

	message, healthy := service.HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.Equal(t, "Persistence layer is healthy", message)
}

func TestWorkflow_Create(t *testing.T) {
	service, _ := newService(t)

	definition := testutil.CreateTestWorkflow()
	definition.ID = ""
	definition.OnStepFailure = ""

	created, err := service.Create(t.Context(), definition)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, models.FailurePolicyHaltBranch, created.OnStepFailure)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Workflow", fetched.Name)
}

func TestWorkflow_Create_Invalid(t *testing.T) {
	service, p := newService(t)

	_, err := service.Create(t.Context(), nil)
	assert.ErrorIs(t, err, ErrWorkflowNil)
	assert.True(t, IsValidationError(err))

	invalid := testutil.CreateTestWorkflow(testutil.WithWorkflowName("ab"), testutil.WithSteps())

	_, err = service.Create(t.Context(), invalid)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.True(t, IsValidationError(err))

	var validationErr *ValidationFailedError
	require.True(t, errors.As(err, &validationErr))
	assert.False(t, validationErr.Result.IsValid)
	assert.NotEmpty(t, validationErr.Result.ForField("name"))

	all, err := p.WorkflowRepository().GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all, "invalid definitions are never stored")
}

func TestWorkflow_Update(t *testing.T) {
	scheduler := &mockScheduler{}
	scheduler.On("Schedule", mock.Anything).Return(nil)

	service, _ := newService(t, WithScheduler(scheduler))

	created, err := service.Create(t.Context(), testutil.CreateTestWorkflow())
	require.NoError(t, err)

	changed := testutil.CreateTestWorkflow(testutil.WithWorkflowName("Renamed Workflow"))
	changed.Owner = ""

	updated, err := service.Update(t.Context(), created.ID, changed)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed Workflow", updated.Name)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "user-1", updated.Owner)

	_, err = service.Update(t.Context(), "missing", testutil.CreateTestWorkflow())
	assert.True(t, IsNotFoundError(err))

	scheduler.AssertNumberOfCalls(t, "Schedule", 2)
}

func TestWorkflow_Delete(t *testing.T) {
	scheduler := &mockScheduler{}
	scheduler.On("Schedule", mock.Anything).Return(errors.New("not scheduled"))
	scheduler.On("Unschedule", mock.Anything).Return()

	service, _ := newService(t, WithScheduler(scheduler))

	created, err := service.Create(t.Context(), testutil.CreateTestWorkflow())
	require.NoError(t, err, "scheduling failures do not fail the save")

	require.NoError(t, service.Delete(t.Context(), created.ID))
	scheduler.AssertCalled(t, "Unschedule", created.ID)

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	assert.True(t, IsNotFoundError(service.Delete(t.Context(), created.ID)))
}

func TestWorkflow_List(t *testing.T) {
	service, _ := newService(t)

	for _, name := range []string{"First Workflow", "Second Workflow"} {
		_, err := service.Create(t.Context(), testutil.CreateTestWorkflow(testutil.WithWorkflowName(name)))
		require.NoError(t, err)
	}

	workflows, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}

func TestWorkflow_ExecuteAndExecutions(t *testing.T) {
	service, p := newService(t)
	ctx := t.Context()

	require.NoError(t, p.TicketRepository().Save(ctx, &models.Ticket{ID: "T-1", Fields: map[string]any{"status": "open"}}))

	created, err := service.Create(ctx, testutil.CreateTestWorkflow())
	require.NoError(t, err)

	execution, err := service.Execute(ctx, created.ID, models.WorkflowContext{TicketID: "T-1", UserID: "agent-1"})
	require.NoError(t, err)
	assert.True(t, execution.Success)
	assert.Equal(t, created.ID, execution.WorkflowID)

	ticket, err := p.TicketRepository().GetByID(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, "closed", ticket.Fields["status"])

	executions, err := service.Executions(ctx, created.ID, 0)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, execution.ID, executions[0].ID)

	stored, err := service.Execution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.ID, stored.ID)

	_, err = service.Execution(ctx, "missing")
	assert.True(t, IsNotFoundError(err))

	_, err = service.Execute(ctx, "missing", models.WorkflowContext{})
	assert.True(t, IsNotFoundError(err))

	_, err = service.Executions(ctx, "missing", 10)
	assert.True(t, IsNotFoundError(err))
}

func TestWorkflow_Test(t *testing.T) {
	service, _ := newService(t)

	created, err := service.Create(t.Context(), testutil.CreateTestWorkflow(testutil.WithSteps(
		testutil.ConditionStep("check", "priority", models.OperatorEquals, "urgent", testutil.WithStart(), testutil.WithNext("close")),
		testutil.ActionStep("close", models.ActionCloseTicket, "", nil),
	)))
	require.NoError(t, err)

	result, err := service.Test(t.Context(), created.ID, map[string]any{"priority": "urgent"})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "close", result.Steps[1].StepID)

	_, err = service.Test(t.Context(), "missing", nil)
	assert.True(t, IsNotFoundError(err))
}

func TestWorkflow_HandleEvent(t *testing.T) {
	service, p := newService(t)
	ctx := t.Context()

	require.NoError(t, p.TicketRepository().Save(ctx, &models.Ticket{ID: "T-1", Fields: map[string]any{}}))

	_, err := service.Create(ctx, testutil.CreateTestWorkflow())
	require.NoError(t, err)

	executions, err := service.HandleEvent(ctx, testutil.CreateTestEvent(models.TriggerTicketCreated))
	require.NoError(t, err)
	assert.Len(t, executions, 1)

	_, err = service.HandleEvent(ctx, models.TicketEvent{Type: "ticket_exploded"})
	assert.ErrorIs(t, err, ErrInvalidEventType)
	assert.True(t, IsValidationError(err))
}

func TestWorkflow_Validate(t *testing.T) {
	service, _ := newService(t)

	assert.True(t, service.Validate(testutil.CreateTestWorkflow()).IsValid)
	assert.False(t, service.Validate(testutil.CreateTestWorkflow(testutil.WithSteps())).IsValid)
}

func TestHealthCheck_NoPersistence(t *testing.T) {
	service := &Workflow{}

	message, healthy := service.HealthCheck(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, "Persistence layer not initialized", message)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

	service := NewWorkflow(p, nil, nil, slog.Default())

	message, healthy := service.HealthCheck(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, "Persistence layer is unhealthy: connection refused", message)
	p.AssertExpectations(t)
}

func TestWorkflow_Create_SaveFails(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.Workflows.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	service := NewWorkflow(p, nil, nil, slog.Default())

	_, err := service.Create(context.Background(), testutil.CreateTestWorkflow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, IsValidationError(err))
}
