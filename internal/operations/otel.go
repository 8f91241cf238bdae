package operations

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kotfilip/ds-consulting-project/internal/infrastructure"
	"github.com/kotfilip/ds-consulting-project/internal/panel"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs.
// A nil *OperationTracer is valid and records nothing.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer on the given providers
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	if providers == nil {
		return nil, fmt.Errorf("telemetry providers are required")
	}
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &OperationTracer{
		tracer:  providers.Tracer,
		metrics: metrics,
	}, nil
}

// TraceOperation creates a span for the entire run
func (ot *OperationTracer) TraceOperation(ctx context.Context, operationID string, stepCount int) (context.Context, trace.Span) {
	if ot == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return ot.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.Int("operation.step_count", stepCount),
		),
	)
}

// TraceStep creates a span for one step
func (ot *OperationTracer) TraceStep(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	if ot == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return ot.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStep ends the step span and records its counter and duration
func (ot *OperationTracer) RecordStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	if ot == nil {
		return
	}
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "step completed")
	}
	infrastructure.RecordStepMetrics(ctx, ot.metrics, stepID, duration, err == nil)
	span.End()
}

// RecordSkip marks a skipped step on the operation span
func (ot *OperationTracer) RecordSkip(ctx context.Context, stepID, reason string) {
	if ot == nil {
		return
	}
	trace.SpanFromContext(ctx).AddEvent("step.skipped", trace.WithAttributes(
		attribute.String("step.id", stepID),
		attribute.String("reason", reason),
	))
}

// RecordOperation ends the operation span with the final status
func (ot *OperationTracer) RecordOperation(span trace.Span, state *OperationState) {
	if ot == nil {
		return
	}
	span.SetAttributes(
		attribute.String("operation.status", string(state.Status)),
		attribute.Float64("operation.duration_seconds", state.Duration().Seconds()),
		attribute.Int("operation.figures", len(state.Figures)),
		attribute.Int("operation.reports", len(state.Reports)),
	)
	if state.Error != nil {
		span.RecordError(state.Error)
		span.SetStatus(codes.Error, state.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "operation completed")
	}
	span.End()
}

// RecordRows records a row count for a stage ("raw", "clean", "dropped")
func (ot *OperationTracer) RecordRows(ctx context.Context, stage string, n int) {
	if ot == nil {
		return
	}
	infrastructure.RecordRows(ctx, ot.metrics, stage, n)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("rows."+stage, n))
}

// RecordModelFit records the fit outcome and the finite R-squared values
func (ot *OperationTracer) RecordModelFit(ctx context.Context, result *panel.Result, err error) {
	if ot == nil {
		return
	}
	if err != nil || result == nil {
		infrastructure.RecordModelFit(ctx, ot.metrics, false, nil)
		return
	}
	rsq := make(map[string]float64, 3)
	for kind, v := range map[string]float64{
		"within":  result.RSquaredWithin(),
		"between": result.RSquaredBetween(),
		"overall": result.RSquaredOverall(),
	} {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			rsq[kind] = v
		}
	}
	infrastructure.RecordModelFit(ctx, ot.metrics, true, rsq)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("model.nobs", result.NObs()),
		attribute.Int("model.entities", result.Entities()),
	)
}

// RecordFiles counts written charts ("chart") or report files ("report")
func (ot *OperationTracer) RecordFiles(ctx context.Context, kind string, n int) {
	if ot == nil || ot.metrics == nil || n <= 0 {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	if kind == "chart" {
		ot.metrics.ChartsRendered.Add(ctx, int64(n), attrs)
		return
	}
	ot.metrics.FilesWritten.Add(ctx, int64(n), attrs)
}
