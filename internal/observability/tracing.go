package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("gocalc")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEvaluationSpan starts a span for one expression.
	StartEvaluationSpan(ctx context.Context, source string) (context.Context, trace.Span)

	// StartBatchSpan starts a span for a batch. Evaluation spans become its children.
	StartBatchSpan(ctx context.Context, batchID string, size int) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
// Set the provider first with otel.SetTracerProvider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartEvaluationSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return StartEvaluationSpan(ctx, source)
}

func (m *otelSpanManager) StartBatchSpan(ctx context.Context, batchID string, size int) (context.Context, trace.Span) {
	return StartBatchSpan(ctx, batchID, size)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// StartEvaluationSpan starts a span for one expression using the global tracer.
func StartEvaluationSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gocalc.evaluate",
		trace.WithAttributes(
			attribute.String("eval.source", source),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartBatchSpan starts a span for a batch using the global tracer.
func StartBatchSpan(ctx context.Context, batchID string, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gocalc.batch",
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.Int("batch.size", size),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
