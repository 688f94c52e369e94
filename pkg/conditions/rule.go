package conditions

import (
	"errors"
	"fmt"

	"github.com/autocrm/autocrm/pkg/fieldpath"
	"github.com/autocrm/autocrm/pkg/models"
)

var ErrEmptyRule = errors.New("rule has no clause")

// EvaluateRule evaluates a rule tree. An empty all is true and an empty any is false.
func EvaluateRule(rule models.Rule, data map[string]any) (bool, error) {
	switch {
	case rule.All != nil:
		for i, child := range rule.All {
			ok, err := EvaluateRule(child, data)
			if err != nil {
				return false, fmt.Errorf("all[%d]: %w", i, err)
			}

			if !ok {
				return false, nil
			}
		}

		return true, nil
	case rule.Any != nil:
		for i, child := range rule.Any {
			ok, err := EvaluateRule(child, data)
			if err != nil {
				return false, fmt.Errorf("any[%d]: %w", i, err)
			}

			if ok {
				return true, nil
			}
		}

		return false, nil
	case rule.Not != nil:
		ok, err := EvaluateRule(*rule.Not, data)
		if err != nil {
			return false, fmt.Errorf("not: %w", err)
		}

		return !ok, nil
	case rule.Field == "" && rule.Operator == "":
		return false, ErrEmptyRule
	default:
		return Evaluate(rule.Operator, fieldpath.Lookup(rule.Field, data), rule.Value)
	}
}

// CheckRule reports the first structural problem in a rule tree without evaluating it.
func CheckRule(rule models.Rule) error {
	for i, child := range rule.All {
		if err := CheckRule(child); err != nil {
			return fmt.Errorf("all[%d]: %w", i, err)
		}
	}

	for i, child := range rule.Any {
		if err := CheckRule(child); err != nil {
			return fmt.Errorf("any[%d]: %w", i, err)
		}
	}

	if rule.Not != nil {
		if err := CheckRule(*rule.Not); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	}

	if !rule.IsLeaf() {
		return nil
	}

	if rule.Field == "" && rule.Operator == "" {
		return ErrEmptyRule
	}

	if rule.Field == "" {
		return errors.New("field is required")
	}

	if !rule.Operator.IsValid() {
		return &UnknownOperatorError{Operator: rule.Operator}
	}

	return nil
}
