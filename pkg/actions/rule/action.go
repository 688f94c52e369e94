// Package rule provides the evaluate_rule custom action.
package rule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autocrm/autocrm/pkg/conditions"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

const Name = "evaluate_rule"

// Decode converts a JSON-shaped rule parameter into a rule tree.
func Decode(raw any) (models.Rule, error) {
	var rule models.Rule

	encoded, err := json.Marshal(raw)
	if err != nil {
		return rule, fmt.Errorf("encoding rule: %w", err)
	}

	if err := json.Unmarshal(encoded, &rule); err != nil {
		return rule, fmt.Errorf("decoding rule: %w", err)
	}

	if err := conditions.CheckRule(rule); err != nil {
		return rule, fmt.Errorf("invalid rule: %w", err)
	}

	return rule, nil
}

// CustomAction evaluates the rule parameter against the workflow context data
// and returns {"result": bool}.
func CustomAction() registry.CustomAction {
	return registry.CustomAction{
		Name:        Name,
		Description: "Evaluate a rule (all/any/not over field comparisons) against the ticket data",
		Parameters: map[string]registry.Parameter{
			"rule": {Type: registry.ParameterObject, Description: "Rule tree to evaluate", Required: true},
		},
		Handler: func(_ context.Context, params map[string]any, wctx models.WorkflowContext) (any, error) {
			rule, err := Decode(params["rule"])
			if err != nil {
				return nil, err
			}

			result, err := conditions.EvaluateRule(rule, wctx.Data)
			if err != nil {
				return nil, err
			}

			return map[string]any{"result": result}, nil
		},
	}
}
