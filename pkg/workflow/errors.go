package workflow

import (
	"errors"
	"fmt"

	"github.com/autocrm/autocrm/pkg/models"
)

var (
	ErrMissingTicketID = errors.New("ticket ID is required for action steps")
	ErrNoTicketMutator = errors.New("no ticket mutator configured")
	ErrNoActionRunner  = errors.New("no custom action runner configured")
	ErrNilWorkflow     = errors.New("workflow is nil")
)

type UnknownActionError struct {
	Action models.ActionType
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Action)
}

type UnknownNotificationTypeError struct {
	Type models.NotificationType
}

func (e *UnknownNotificationTypeError) Error() string {
	return fmt.Sprintf("unknown notification type: %s", e.Type)
}

type UnknownStepTypeError struct {
	Type models.StepType
}

func (e *UnknownStepTypeError) Error() string {
	return fmt.Sprintf("unknown step type: %s", e.Type)
}

// StepPanicError wraps a value recovered from a panicking step.
type StepPanicError struct {
	StepID string
	Value  any
}

func (e *StepPanicError) Error() string {
	return fmt.Sprintf("step %s panicked: %v", e.StepID, e.Value)
}
