package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocrm/autocrm/pkg/models"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ExecutionFinished("wf-1", true, 200*time.Millisecond)
	r.ExecutionFinished("wf-1", true, time.Second)
	r.ExecutionFinished("wf-1", false, time.Second)
	r.StepFinished(models.StepTypeCondition, true)
	r.StepFinished(models.StepTypeAction, false)
	r.EventReceived(models.TriggerTicketCreated)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.executionsTotal.WithLabelValues("wf-1", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.executionsTotal.WithLabelValues("wf-1", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.stepsTotal.WithLabelValues("action", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.eventsTotal.WithLabelValues("ticket_created")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.executionDuration))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(nil)
	r.StepFinished(models.StepTypeDelay, true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `autocrm_workflow_steps_total{step_type="delay",success="true"} 1`)
}
