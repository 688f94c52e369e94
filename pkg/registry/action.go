package registry

import (
	"context"
	"sort"

	"github.com/autocrm/autocrm/pkg/models"
)

// ParameterType is the JSON type a custom action parameter accepts.
type ParameterType string

const (
	ParameterString  ParameterType = "string"
	ParameterNumber  ParameterType = "number"
	ParameterBoolean ParameterType = "boolean"
	ParameterArray   ParameterType = "array"
	ParameterObject  ParameterType = "object"
)

func (t ParameterType) IsValid() bool {
	switch t {
	case ParameterString, ParameterNumber, ParameterBoolean, ParameterArray, ParameterObject:
		return true
	default:
		return false
	}
}

// Parameter declares one named input of a custom action.
type Parameter struct {
	Type        ParameterType `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required,omitempty"`
	Default     any           `json:"default,omitempty"`
}

// Handler runs a custom action with validated parameters.
type Handler func(ctx context.Context, params map[string]any, wctx models.WorkflowContext) (any, error)

// CustomAction is a named, parameterised action invoked by "custom" action steps.
type CustomAction struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters"`
	Handler     Handler              `json:"-"`
}

// Schema returns the JSON Schema describing the action parameters.
func (a CustomAction) Schema() map[string]any {
	properties := make(map[string]any, len(a.Parameters))
	required := make([]string, 0)

	for name, param := range a.Parameters {
		property := map[string]any{
			"type":        string(param.Type),
			"description": param.Description,
		}

		if param.Default != nil {
			property["default"] = param.Default
		}

		properties[name] = property

		if param.Required {
			required = append(required, name)
		}
	}

	sort.Strings(required)

	schema := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}
