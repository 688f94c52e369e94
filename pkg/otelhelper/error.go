package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span as failed. A nil err leaves the span untouched.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// SetOutcome records how many steps ran and, for failed executions, how many
// of them failed. The span status is set to error when success is false.
func SetOutcome(span trace.Span, success bool, executed, failed int) {
	span.SetAttributes(
		attribute.Bool(SuccessKey, success),
		attribute.Int(StepsExecutedKey, executed),
	)

	if success {
		span.SetStatus(codes.Ok, "")

		return
	}

	span.SetAttributes(attribute.Int(FailedStepsKey, failed))
	span.SetStatus(codes.Error, "workflow execution failed")
}
