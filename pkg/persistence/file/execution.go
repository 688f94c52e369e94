package file

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
)

// ExecutionRepository stores execution log entries as files.
type ExecutionRepository struct {
	root string
	mu   sync.RWMutex
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if execution.ID == "" {
		return fmt.Errorf("execution ID is required")
	}

	return writeRecord(recordPath(er.root, "executions", execution.ID), execution)
}

func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	var execution models.Execution

	found, err := readRecord(recordPath(er.root, "executions", id), &execution)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
	}

	return &execution, nil
}

// ListByWorkflow scans every execution file; it is meant for development setups.
func (er *ExecutionRepository) ListByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.Execution, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	ids, err := listRecords(er.root, "executions")
	if err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0)

	for _, id := range ids {
		var execution models.Execution

		found, err := readRecord(recordPath(er.root, "executions", id), &execution)
		if err != nil {
			return nil, err
		}

		if found && execution.WorkflowID == workflowID {
			executions = append(executions, &execution)
		}
	}

	sort.SliceStable(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	if limit > 0 && len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}
