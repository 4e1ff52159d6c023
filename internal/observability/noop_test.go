package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordEvaluation(context.Background(), time.Millisecond, "invalid_number", true)
		m.RecordBatch(context.Background(), 10, 1, time.Second)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var m SpanManager = NoopSpanManager{}
	ctx := context.Background()

	newCtx, span := m.StartEvaluationSpan(ctx, "cli")
	assert.Equal(t, ctx, newCtx)
	assert.False(t, span.IsRecording())

	newCtx, span = m.StartBatchSpan(ctx, "b", 3)
	assert.Equal(t, ctx, newCtx)

	assert.NotPanics(t, func() { m.EndSpanWithError(span, errors.New("x")) })
}
