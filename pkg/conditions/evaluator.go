// Package conditions evaluates step conditions and boolean rule trees against ticket data.
package conditions

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/autocrm/autocrm/pkg/fieldpath"
	"github.com/autocrm/autocrm/pkg/models"
)

// UnknownOperatorError is returned for operators outside the supported set.
type UnknownOperatorError struct {
	Operator models.Operator
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator: %q", e.Operator)
}

// Evaluate applies op to the resolved field value and the configured value.
func Evaluate(op models.Operator, fieldValue, value any) (bool, error) {
	switch op {
	case models.OperatorEquals:
		return equal(fieldValue, value), nil
	case models.OperatorNotEquals:
		return !equal(fieldValue, value), nil
	case models.OperatorContains:
		if fieldValue == nil {
			return false, nil
		}

		return strings.Contains(fieldpath.String(fieldValue), fieldpath.String(value)), nil
	case models.OperatorGreaterThan:
		left, right := toNumber(fieldValue), toNumber(value)

		return left > right, nil
	case models.OperatorLessThan:
		left, right := toNumber(fieldValue), toNumber(value)

		return left < right, nil
	default:
		return false, &UnknownOperatorError{Operator: op}
	}
}

// EvaluateCondition resolves config.Field in data and evaluates it. A config
// carrying a rule is evaluated as that rule.
func EvaluateCondition(config *models.ConditionConfig, data map[string]any) (bool, error) {
	if config == nil {
		return false, fmt.Errorf("missing condition config")
	}

	if config.Rule != nil {
		return EvaluateRule(*config.Rule, data)
	}

	return Evaluate(config.Operator, fieldpath.Lookup(config.Field, data), config.Value)
}

func equal(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	_, leftString := left.(string)
	_, rightString := right.(string)

	if leftString || rightString {
		return fieldpath.String(left) == fieldpath.String(right)
	}

	leftNumber, leftOk := numeric(left)
	rightNumber, rightOk := numeric(right)

	if leftOk && rightOk {
		return leftNumber == rightNumber
	}

	return reflect.DeepEqual(left, right)
}

// toNumber returns NaN for values without a numeric reading, so every ordering
// comparison fails. nil is treated as a missing field, not as zero.
func toNumber(value any) float64 {
	if number, ok := numeric(value); ok {
		return number
	}

	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}

		return 0
	case string:
		return parseNumber(strings.TrimSpace(v))
	default:
		return math.NaN()
	}
}

// parseNumber reads s as a decimal number where blank reads as zero.
// Only the Infinity spellings name an infinite value.
func parseNumber(s string) float64 {
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	number, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return number
		}

		return math.NaN()
	}

	// ParseFloat also accepts inf, infinity and nan in any case.
	if math.IsInf(number, 0) || math.IsNaN(number) {
		return math.NaN()
	}

	return number
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
