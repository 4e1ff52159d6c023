package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry owns the OTel providers installed by Setup.
type Telemetry struct {
	Metrics MetricsRecorder
	Spans   SpanManager

	logger         *slog.Logger
	reader         *sdkmetric.ManualReader
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// Setup installs global OTel providers for the enabled signals and returns
// recorders bound to them. Disabled signals get no-op recorders.
//
// Spans are written to logger at debug level as they end. Metrics are
// collected once at Shutdown and logged as a summary.
func Setup(logger *slog.Logger, metricsEnabled, tracingEnabled bool) *Telemetry {
	t := &Telemetry{
		Metrics: NoopMetrics{},
		Spans:   NoopSpanManager{},
		logger:  logger,
	}

	if metricsEnabled {
		t.reader = sdkmetric.NewManualReader()
		t.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(t.reader))
		otel.SetMeterProvider(t.meterProvider)
		t.Metrics = NewMetricsRecorder()
	}

	if tracingEnabled {
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(&logExporter{logger: logger}),
		)
		otel.SetTracerProvider(t.tracerProvider)
		tracer = otel.Tracer("gocalc")
		t.Spans = NewSpanManager()
	}

	return t
}

// Shutdown flushes and stops the installed providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.meterProvider != nil {
		var rm metricdata.ResourceMetrics
		if err := t.reader.Collect(ctx, &rm); err != nil {
			errs = append(errs, err)
		} else {
			logMetricsSummary(t.logger, &rm)
		}
		errs = append(errs, t.meterProvider.Shutdown(ctx))
	}

	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// logMetricsSummary logs the total of every counter
func logMetricsSummary(logger *slog.Logger, rm *metricdata.ResourceMetrics) {
	if logger == nil {
		return
	}
	attrs := make([]any, 0)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			attrs = append(attrs, slog.Int64(m.Name, total))
		}
	}
	logger.Info("metrics summary", attrs...)
}

// logExporter writes finished spans to a slog logger
type logExporter struct {
	logger *slog.Logger
}

var _ sdktrace.SpanExporter = (*logExporter)(nil)

func (e *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if e.logger == nil {
		return nil
	}
	for _, span := range spans {
		e.logger.Debug("span",
			slog.String("name", span.Name()),
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("status", span.Status().Code.String()),
			slog.Int64("duration_us", span.EndTime().Sub(span.StartTime()).Microseconds()),
		)
	}
	return nil
}

func (e *logExporter) Shutdown(ctx context.Context) error {
	return nil
}
