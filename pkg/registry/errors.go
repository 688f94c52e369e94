package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrActionNotFound          = errors.New("custom action not found")
	ErrActionAlreadyRegistered = errors.New("custom action already registered")
	ErrInvalidAction           = errors.New("invalid custom action")
)

// ParameterError lists the parameter problems found before running an action.
type ParameterError struct {
	Action string
	Errors []string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameters for action %q: %s", e.Action, strings.Join(e.Errors, "; "))
}

func IsActionNotFound(err error) bool {
	return errors.Is(err, ErrActionNotFound)
}

func IsParameterError(err error) bool {
	var paramErr *ParameterError

	return errors.As(err, &paramErr)
}
