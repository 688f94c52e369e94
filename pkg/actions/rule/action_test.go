package rule

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

func TestEvaluateRuleAction(t *testing.T) {
	r := registry.NewRegistry(slog.Default())
	require.NoError(t, r.Register(CustomAction()))

	wctx := models.WorkflowContext{Data: map[string]any{"priority": "urgent", "replies": float64(4)}}

	tests := []struct {
		name string
		rule map[string]any
		want bool
	}{
		{
			name: "all matching",
			rule: map[string]any{"all": []any{
				map[string]any{"field": "priority", "operator": "equals", "value": "urgent"},
				map[string]any{"field": "replies", "operator": "greater_than", "value": 3},
			}},
			want: true,
		},
		{
			name: "not",
			rule: map[string]any{"not": map[string]any{"field": "priority", "operator": "equals", "value": "urgent"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := r.Execute(context.Background(), Name, map[string]any{"rule": tt.rule}, wctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"result": tt.want}, output)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(map[string]any{"any": []any{map[string]any{"field": "a", "operator": "like"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rule")

	_, err = Decode(map[string]any{"all": "nope"})
	assert.Error(t, err)
}
