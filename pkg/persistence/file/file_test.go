package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
	"github.com/autocrm/autocrm/pkg/testutil"
)

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.Error(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()))
	assert.NoError(t, NewPersistence(t.TempDir()).Close(t.Context()))
}

func TestWorkflowRepository_SaveAndLoad(t *testing.T) {
	testDir := t.TempDir()
	repo := NewPersistence(testDir).WorkflowRepository()

	workflow := testutil.CreateTestWorkflow(testutil.WithSteps(
		testutil.ConditionStep("check", "priority", models.OperatorEquals, "urgent", testutil.WithStart(), testutil.WithNext("notify")),
		testutil.NotificationStep("notify", models.NotificationEmail, "Ticket ${id}", []string{"lead@example.com"}),
	))
	workflow.ID = ""
	workflow.CreatedAt = time.Time{}

	require.NoError(t, repo.Save(t.Context(), workflow))
	require.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())
	assert.FileExists(t, filepath.Join(testDir, "workflows", workflow.ID+".json"))

	loaded, err := repo.GetByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	require.Len(t, loaded.Steps, 2)

	condition, ok := loaded.Steps[0].Config.(*models.ConditionConfig)
	require.True(t, ok)
	assert.Equal(t, "urgent", condition.Value)

	notification, ok := loaded.Steps[1].Config.(*models.NotificationConfig)
	require.True(t, ok)
	assert.Equal(t, []string{"lead@example.com"}, notification.Recipients)
}

func TestWorkflowRepository_SaveUpdatesTimestamp(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	workflow := testutil.CreateTestWorkflow()
	workflow.CreatedAt = created
	workflow.UpdatedAt = created

	require.NoError(t, repo.Save(t.Context(), workflow))

	assert.Equal(t, created, workflow.CreatedAt)
	assert.True(t, workflow.UpdatedAt.After(created))
}

func TestWorkflowRepository_NotFound(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	_, err := repo.GetByID(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = repo.Delete(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ListActiveByTrigger(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	workflows := []*models.Workflow{
		testutil.CreateTestWorkflow(testutil.WithWorkflowName("first")),
		testutil.CreateTestWorkflow(testutil.WithWorkflowName("inactive"), testutil.WithActive(false)),
		testutil.CreateTestWorkflow(testutil.WithWorkflowName("status"), testutil.WithTrigger(models.TriggerTicketStatusChanged, nil)),
		testutil.CreateTestWorkflow(testutil.WithWorkflowName("second")),
	}

	for i, workflow := range workflows {
		workflow.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Save(t.Context(), workflow))
	}

	all, err := repo.GetAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := repo.ListActiveByTrigger(t.Context(), models.TriggerTicketCreated)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "first", active[0].Name)
	assert.Equal(t, "second", active[1].Name)

	require.NoError(t, repo.Delete(t.Context(), workflows[0].ID))

	active, err = repo.ListActiveByTrigger(t.Context(), models.TriggerTicketCreated)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestWorkflowRepository_RejectsPathTraversal(t *testing.T) {
	testDir := t.TempDir()
	repo := NewWorkflowRepository(filepath.Join(testDir, "data"))

	workflow := testutil.CreateTestWorkflow()
	workflow.ID = "../../escape"

	require.NoError(t, repo.Save(t.Context(), workflow))
	assert.FileExists(t, filepath.Join(testDir, "data", "workflows", "escape.json"))
}

func TestExecutionRepository(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"exec-1", "exec-2", "exec-3"} {
		execution := models.NewExecution(id,
			models.WorkflowContext{WorkflowID: "wf-1", TicketID: "T-1", Trigger: &models.TriggerData{Type: models.TriggerTicketCreated}},
			models.WorkflowResult{Success: true, StepResults: []models.StepResult{{StepID: "close", Success: true}}},
			started.Add(time.Duration(i)*time.Minute), started.Add(time.Duration(i)*time.Minute+time.Second))
		require.NoError(t, repo.Save(t.Context(), execution))
	}

	other := models.NewExecution("exec-other", models.WorkflowContext{WorkflowID: "wf-2"}, models.WorkflowResult{}, started, started)
	require.NoError(t, repo.Save(t.Context(), other))

	loaded, err := repo.GetByID(t.Context(), "exec-2")
	require.NoError(t, err)
	assert.Equal(t, models.TriggerTicketCreated, loaded.TriggerType)
	assert.Equal(t, "T-1", loaded.TicketID)

	list, err := repo.ListByWorkflow(t.Context(), "wf-1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "exec-3", list[0].ID)
	assert.Equal(t, "exec-2", list[1].ID)

	_, err = repo.GetByID(t.Context(), "nope")
	assert.True(t, persistence.IsExecutionNotFound(err))

	assert.Error(t, repo.Save(t.Context(), &models.Execution{}))
}

func TestTicketRepository(t *testing.T) {
	repo := NewPersistence(t.TempDir()).TicketRepository()

	require.NoError(t, repo.Save(t.Context(), &models.Ticket{
		ID:     "T-1",
		Fields: map[string]any{"status": "open", "priority": "low"},
	}))

	require.NoError(t, repo.UpdateField(t.Context(), "T-1", "status", "closed"))
	require.NoError(t, repo.UpdateFields(t.Context(), "T-1", map[string]any{"priority": "urgent", "assigned_to": "agent-7"}))
	require.NoError(t, repo.CreateHistoryEntry(t.Context(), "T-1", models.HistoryEntry{
		Action:  "workflow_close_ticket",
		Details: map[string]any{"field": "status", "value": "closed"},
		UserID:  "user-1",
	}))

	ticket, err := repo.GetByID(t.Context(), "T-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "closed", "priority": "urgent", "assigned_to": "agent-7"}, ticket.Fields)
	require.Len(t, ticket.History, 1)
	assert.Equal(t, "workflow_close_ticket", ticket.History[0].Action)
	assert.False(t, ticket.History[0].CreatedAt.IsZero())

	err = repo.UpdateField(t.Context(), "T-404", "status", "closed")
	assert.True(t, persistence.IsTicketNotFound(err))

	err = repo.CreateHistoryEntry(t.Context(), "T-404", models.HistoryEntry{Action: "x"})
	assert.True(t, persistence.IsTicketNotFound(err))
}
