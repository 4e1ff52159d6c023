// Package observability provides structured logging, metrics and tracing
// for expression evaluation.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger builds a slog logger writing to w.
// format is "text" or "json"; level is one of debug, info, warn, error.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// EnrichLogger adds request context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "http", "b6f1...")
//	enriched.Info("evaluating") // includes source and batch_id
func EnrichLogger(logger *slog.Logger, source, batchID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	attrs := []any{slog.String("source", source)}
	if batchID != "" {
		attrs = append(attrs, slog.String("batch_id", batchID))
	}
	return logger.With(attrs...)
}

// LogEvaluation logs a successful evaluation.
func LogEvaluation(logger *slog.Logger, expression string, value string, duration time.Duration, cacheHit bool) {
	if logger == nil {
		return
	}
	logger.Debug("expression evaluated",
		slog.String("expression", expression),
		slog.String("value", value),
		slog.Int64("duration_us", duration.Microseconds()),
		slog.Bool("cache_hit", cacheHit),
	)
}

// LogEvaluationError logs an evaluation that failed to parse.
func LogEvaluationError(logger *slog.Logger, expression string, err error, position int) {
	if logger == nil {
		return
	}
	logger.Debug("expression rejected",
		slog.String("expression", expression),
		slog.String("error", err.Error()),
		slog.Int("position", position),
	)
}

// LogBatch logs completion of a batch.
func LogBatch(logger *slog.Logger, batchID string, size, failed int, duration time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("batch evaluated",
		slog.String("batch_id", batchID),
		slog.Int("size", size),
		slog.Int("failed", failed),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	)
}

// LogHistoryError logs a failure to persist an evaluation.
func LogHistoryError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Warn("failed to record evaluation history",
		slog.String("error", err.Error()),
	)
}
