package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/autocrm/autocrm/pkg/models"
)

// MockTicketMutator is a mock implementation of workflow.TicketMutator interface.
type MockTicketMutator struct {
	mock.Mock
}

func (m *MockTicketMutator) UpdateField(ctx context.Context, ticketID, field string, value any) error {
	args := m.Called(ctx, ticketID, field, value)

	return args.Error(0)
}

func (m *MockTicketMutator) UpdateFields(ctx context.Context, ticketID string, patch map[string]any) error {
	args := m.Called(ctx, ticketID, patch)

	return args.Error(0)
}

func (m *MockTicketMutator) CreateHistoryEntry(ctx context.Context, ticketID string, entry models.HistoryEntry) error {
	args := m.Called(ctx, ticketID, entry)

	return args.Error(0)
}

// MockNotifier is a mock implementation of workflow.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, recipients []string, message string, wctx models.WorkflowContext) error {
	args := m.Called(ctx, recipients, message, wctx)

	return args.Error(0)
}

// MockActionRunner is a mock implementation of workflow.ActionRunner interface.
type MockActionRunner struct {
	mock.Mock
}

func (m *MockActionRunner) Execute(ctx context.Context, name string, params map[string]any, wctx models.WorkflowContext) (any, error) {
	args := m.Called(ctx, name, params, wctx)

	return args.Get(0), args.Error(1)
}
