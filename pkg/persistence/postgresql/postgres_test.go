package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
	"github.com/autocrm/autocrm/pkg/persistence/postgresql"
	"github.com/autocrm/autocrm/pkg/testutil"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"ticket_history", "tickets", "workflow_executions", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("autocrm_test"),
			postgres.WithUsername("autocrm"),
			postgres.WithPassword("autocrm"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	for _, table := range []string{"workflows", "workflow_executions", "tickets", "ticket_history", "schema_migrations"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestWorkflowRepository_SaveAndRetrieve(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	workflow := testutil.CreateTestWorkflow(
		testutil.WithTrigger(models.TriggerTicketStatusChanged, map[string]any{"fromStatus": "open", "toStatus": "resolved"}),
		testutil.WithFailurePolicy(models.FailurePolicyHaltAll),
		testutil.WithSteps(
			testutil.ConditionStep("check", "priority", models.OperatorEquals, "urgent", testutil.WithStart(), testutil.WithNext("delay")),
			testutil.DelayStep("delay", 2, models.DelayUnitHours),
		),
	)
	workflow.ID = ""

	require.NoError(t, repo.Save(ctx, workflow))
	require.NotEmpty(t, workflow.ID)

	retrieved, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, retrieved.Name)
	assert.Equal(t, models.FailurePolicyHaltAll, retrieved.OnStepFailure)
	assert.Equal(t, "resolved", retrieved.Trigger.Condition("toStatus"))
	require.Len(t, retrieved.Steps, 2)
	assert.Equal(t, &models.DelayConfig{Duration: 2, Unit: models.DelayUnitHours}, retrieved.Steps[1].Config)

	active, err := repo.ListActiveByTrigger(ctx, models.TriggerTicketStatusChanged)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repo.Delete(ctx, workflow.ID))

	_, err = repo.GetByID(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = repo.Delete(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestExecutionRepository_SaveAndList(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ExecutionRepository()

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"exec-1", "exec-2"} {
		execution := models.NewExecution(id,
			models.WorkflowContext{WorkflowID: "wf-1", TicketID: "T-1", Data: map[string]any{"id": "T-1"}},
			models.WorkflowResult{Success: i == 0, StepResults: []models.StepResult{{StepID: "close", Success: i == 0}}, Error: ""},
			started.Add(time.Duration(i)*time.Minute), started.Add(time.Duration(i)*time.Minute+time.Second))
		require.NoError(t, repo.Save(ctx, execution))
	}

	list, err := repo.ListByWorkflow(ctx, "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "exec-2", list[0].ID)

	loaded, err := repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.True(t, loaded.Success)
	assert.Equal(t, "T-1", loaded.Context.Data["id"])

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestTicketRepository_Mutations(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.TicketRepository()

	require.NoError(t, repo.Save(ctx, &models.Ticket{ID: "T-1", Fields: map[string]any{"status": "open"}}))
	require.NoError(t, repo.UpdateField(ctx, "T-1", "status", "closed"))
	require.NoError(t, repo.UpdateFields(ctx, "T-1", map[string]any{"assigned_to": "agent-7"}))
	require.NoError(t, repo.CreateHistoryEntry(ctx, "T-1", models.HistoryEntry{
		Action:  "workflow_close_ticket",
		Details: map[string]any{"field": "status"},
		UserID:  "user-1",
	}))

	ticket, err := repo.GetByID(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "closed", "assigned_to": "agent-7"}, ticket.Fields)
	require.Len(t, ticket.History, 1)
	assert.Equal(t, "user-1", ticket.History[0].UserID)

	assert.True(t, persistence.IsTicketNotFound(repo.UpdateField(ctx, "T-404", "status", "closed")))
	assert.True(t, persistence.IsTicketNotFound(repo.CreateHistoryEntry(ctx, "T-404", models.HistoryEntry{Action: "x"})))

	_, err = repo.GetByID(ctx, "T-404")
	assert.True(t, persistence.IsTicketNotFound(err))
}
