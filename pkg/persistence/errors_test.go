package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autocrm/autocrm/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("GetByID", "workflow-123", persistence.ErrWorkflowNotFound)
		ticketErr := persistence.NewTicketError("UpdateField", "T-1", persistence.ErrTicketNotFound)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsTicketNotFound(ticketErr))
		assert.False(t, persistence.IsTicketNotFound(workflowErr))
		assert.True(t, persistence.IsExecutionNotFound(fmt.Errorf("loading: %w", persistence.ErrExecutionNotFound)))

		assert.True(t, errors.Is(workflowErr, persistence.ErrWorkflowNotFound))
		assert.True(t, errors.Is(ticketErr, persistence.ErrTicketNotFound))
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		err := persistence.NewWorkflowError("Delete", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.Equal(t, "Delete operation failed for workflow workflow-123: workflow not found", err.Error())
	})

	t.Run("ticket error contains context", func(t *testing.T) {
		err := persistence.NewTicketError("CreateHistoryEntry", "T-9", persistence.ErrTicketNotFound)

		assert.Contains(t, err.Error(), "CreateHistoryEntry")
		assert.Contains(t, err.Error(), "T-9")
	})
}
