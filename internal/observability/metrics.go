package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records evaluation metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEvaluation records one evaluation. kind is empty on success.
	RecordEvaluation(ctx context.Context, duration time.Duration, kind string, cacheHit bool)

	// RecordBatch records a completed batch.
	RecordBatch(ctx context.Context, size, failed int, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	evaluations metric.Int64Counter
	errors      metric.Int64Counter
	latency     metric.Float64Histogram
	batches     metric.Int64Counter
	batchSize   metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("gocalc")

	evaluations, err := meter.Int64Counter("gocalc.evaluations",
		metric.WithDescription("Number of evaluated expressions"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("gocalc.errors",
		metric.WithDescription("Number of expressions that failed to evaluate"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("gocalc.latency_us",
		metric.WithDescription("Evaluation latency in microseconds"),
		metric.WithUnit("us"),
	)
	if err != nil {
		return nil, err
	}

	batches, err := meter.Int64Counter("gocalc.batches",
		metric.WithDescription("Number of evaluated batches"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("gocalc.batch.size",
		metric.WithDescription("Expressions per batch"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		evaluations: evaluations,
		errors:      errs,
		latency:     latency,
		batches:     batches,
		batchSize:   batchSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider; set it first with
// otel.SetMeterProvider.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEvaluation records one evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, duration time.Duration, kind string, cacheHit bool) {
	attrs := metric.WithAttributes(
		attribute.Bool("success", kind == ""),
		attribute.Bool("cache_hit", cacheHit),
	)
	m.evaluations.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(duration.Nanoseconds())/1000, attrs)

	if kind != "" {
		m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordBatch records a completed batch.
func (m *otelMetrics) RecordBatch(ctx context.Context, size, failed int, _ time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", failed == 0))
	m.batches.Add(ctx, 1, attrs)
	m.batchSize.Record(ctx, int64(size), attrs)
}
