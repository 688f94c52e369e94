// Package metrics exposes workflow execution metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autocrm/autocrm/pkg/models"
)

// Recorder counts executions and step outcomes. It satisfies workflow.Recorder.
type Recorder struct {
	gatherer prometheus.Gatherer

	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	stepsTotal        *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
}

// NewRecorder registers the collectors on reg. Passing nil uses a fresh registry.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)

	return &Recorder{
		gatherer: reg,
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autocrm_workflow_executions_total",
				Help: "Total number of workflow executions",
			},
			[]string{"workflow_id", "success"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autocrm_workflow_execution_duration_seconds",
				Help:    "Workflow execution duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 300},
			},
			[]string{"workflow_id"},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autocrm_workflow_steps_total",
				Help: "Total number of executed workflow steps",
			},
			[]string{"step_type", "success"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autocrm_ticket_events_total",
				Help: "Total number of ticket events received",
			},
			[]string{"event_type"},
		),
	}
}

func (r *Recorder) ExecutionFinished(workflowID string, success bool, duration time.Duration) {
	r.executionsTotal.WithLabelValues(workflowID, strconv.FormatBool(success)).Inc()
	r.executionDuration.WithLabelValues(workflowID).Observe(duration.Seconds())
}

func (r *Recorder) StepFinished(stepType models.StepType, success bool) {
	r.stepsTotal.WithLabelValues(string(stepType), strconv.FormatBool(success)).Inc()
}

func (r *Recorder) EventReceived(eventType models.TriggerType) {
	r.eventsTotal.WithLabelValues(string(eventType)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
