// Package persistence provides the storage abstraction for workflows, executions and tickets.
package persistence

import (
	"context"

	"github.com/autocrm/autocrm/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	TicketRepository() TicketRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	// GetByID returns ErrWorkflowNotFound when no workflow has the id.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	// Save creates or replaces a workflow, assigning an ID and timestamps as needed.
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
	// ListActiveByTrigger returns active workflows listening on triggerType.
	ListActiveByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Workflow, error)
}

// ExecutionRepository stores the execution log.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.Execution) error
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	// ListByWorkflow returns the newest executions first. limit <= 0 means no limit.
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.Execution, error)
}

// TicketRepository stores tickets and their history. It satisfies the
// engine's TicketMutator contract.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	Save(ctx context.Context, ticket *models.Ticket) error

	UpdateField(ctx context.Context, ticketID, field string, value any) error
	UpdateFields(ctx context.Context, ticketID string, patch map[string]any) error
	CreateHistoryEntry(ctx context.Context, ticketID string, entry models.HistoryEntry) error
}
