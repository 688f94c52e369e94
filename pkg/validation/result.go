// Package validation checks workflow definitions for structural and configuration errors.
package validation

import "strings"

// Error is a single validation problem attached to a field such as "name" or "step_<id>".
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects every problem found in a workflow definition.
type Result struct {
	IsValid bool    `json:"isValid"`
	Errors  []Error `json:"errors"`
}

// Summary joins the messages into one line, e.g. for a failed execution.
func (r Result) Summary() string {
	if r.IsValid {
		return ""
	}

	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}

	return "workflow validation failed: " + strings.Join(parts, "; ")
}

// ForField returns the messages reported for field.
func (r Result) ForField(field string) []string {
	messages := make([]string, 0)

	for _, e := range r.Errors {
		if e.Field == field {
			messages = append(messages, e.Message)
		}
	}

	return messages
}

type collector struct {
	errors []Error
}

func (c *collector) add(field, message string) {
	c.errors = append(c.errors, Error{Field: field, Message: message})
}

func (c *collector) result() Result {
	errs := c.errors
	if errs == nil {
		errs = []Error{}
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}
