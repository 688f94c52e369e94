package conditions

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/models"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		op         models.Operator
		fieldValue any
		value      any
		want       bool
	}{
		{"equals strings", models.OperatorEquals, "urgent", "urgent", true},
		{"equals different strings", models.OperatorEquals, "low", "urgent", false},
		{"equals number and string", models.OperatorEquals, float64(3), "3", true},
		{"equals int and float", models.OperatorEquals, 3, float64(3), true},
		{"equals bools", models.OperatorEquals, true, true, true},
		{"equals nil field", models.OperatorEquals, nil, "urgent", false},
		{"equals nil both", models.OperatorEquals, nil, nil, true},
		{"equals slices", models.OperatorEquals, []any{"a"}, []any{"a"}, true},
		{"not equals", models.OperatorNotEquals, "open", "closed", true},
		{"not equals same", models.OperatorNotEquals, "open", "open", false},
		{"not equals nil field", models.OperatorNotEquals, nil, "open", true},
		{"contains", models.OperatorContains, "refund please", "refund", true},
		{"contains missing", models.OperatorContains, "hello", "refund", false},
		{"contains nil field", models.OperatorContains, nil, "", false},
		{"contains number", models.OperatorContains, 12345, "234", true},
		{"greater than", models.OperatorGreaterThan, 5, 3, true},
		{"greater than equal values", models.OperatorGreaterThan, 3, 3, false},
		{"greater than numeric strings", models.OperatorGreaterThan, "10", "9", true},
		{"greater than non numeric", models.OperatorGreaterThan, "abc", 1, false},
		{"greater than nil field", models.OperatorGreaterThan, nil, 1, false},
		{"less than", models.OperatorLessThan, 1.5, 2, true},
		{"less than false", models.OperatorLessThan, 4, 2, false},
		{"less than non numeric", models.OperatorLessThan, 1, "abc", false},
		{"less than bool", models.OperatorLessThan, false, true, true},
		{"greater than NaN", models.OperatorGreaterThan, math.NaN(), 1, false},
		{"greater than blank string", models.OperatorGreaterThan, "", -1, true},
		{"less than whitespace string", models.OperatorLessThan, "  ", 1, true},
		{"less than nil field", models.OperatorLessThan, nil, 1, false},
		{"greater than Infinity", models.OperatorGreaterThan, "Infinity", math.MaxFloat64, true},
		{"less than -Infinity", models.OperatorLessThan, "-Infinity", -math.MaxFloat64, true},
		{"greater than inf spelling", models.OperatorGreaterThan, "inf", 1, false},
		{"less than inf spelling", models.OperatorLessThan, "-infinity", 1, false},
		{"greater than nan spelling", models.OperatorGreaterThan, "NaN", 1, false},
		{"less than nan spelling", models.OperatorLessThan, "nan", 1, false},
		{"greater than out of range", models.OperatorGreaterThan, "1e400", math.MaxFloat64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Evaluate(tt.op, tt.fieldValue, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_UnknownOperator(t *testing.T) {
	t.Parallel()

	got, err := Evaluate("matches", "a", "a")
	require.Error(t, err)
	assert.False(t, got)

	var opErr *UnknownOperatorError

	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, models.Operator("matches"), opErr.Operator)
}

func TestEvaluateCondition(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"priority": "urgent",
		"customer": map[string]any{"tier": "gold"},
	}

	ok, err := EvaluateCondition(&models.ConditionConfig{
		Field:    "customer.tier",
		Operator: models.OperatorEquals,
		Value:    "gold",
	}, data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateCondition(&models.ConditionConfig{
		Field:    "customer.region",
		Operator: models.OperatorEquals,
		Value:    "eu",
	}, data)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = EvaluateCondition(&models.ConditionConfig{
		Rule: &models.Rule{Not: &models.Rule{Field: "priority", Operator: models.OperatorEquals, Value: "urgent"}},
	}, data)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = EvaluateCondition(nil, data)
	assert.Error(t, err)
}
