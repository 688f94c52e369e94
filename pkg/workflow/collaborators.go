package workflow

import (
	"context"
	"time"

	"github.com/autocrm/autocrm/pkg/models"
)

// TicketMutator applies ticket changes made by action steps.
type TicketMutator interface {
	UpdateField(ctx context.Context, ticketID, field string, value any) error
	UpdateFields(ctx context.Context, ticketID string, patch map[string]any) error
	CreateHistoryEntry(ctx context.Context, ticketID string, entry models.HistoryEntry) error
}

// Notifier delivers a rendered notification message to its recipients.
type Notifier interface {
	Send(ctx context.Context, recipients []string, message string, wctx models.WorkflowContext) error
}

// ActionRunner runs named custom actions.
type ActionRunner interface {
	Execute(ctx context.Context, name string, params map[string]any, wctx models.WorkflowContext) (any, error)
}

// Recorder observes execution outcomes, e.g. for metrics.
type Recorder interface {
	ExecutionFinished(workflowID string, success bool, duration time.Duration)
	StepFinished(stepType models.StepType, success bool)
}

type nopRecorder struct{}

func (nopRecorder) ExecutionFinished(string, bool, time.Duration) {}

func (nopRecorder) StepFinished(models.StepType, bool) {}
