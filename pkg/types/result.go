package types

import (
	"math"
	"strconv"
	"time"
)

// Evaluation sources
const (
	SourceMCP   = "mcp"
	SourceHTTP  = "http"
	SourceCLI   = "cli"
	SourceTUI   = "tui"
	SourceBatch = "batch"
)

// Evaluation is the outcome of evaluating one expression
type Evaluation struct {
	// Identification
	ID      int64
	BatchID string // Empty unless evaluated as part of a batch

	// Input
	Expression string
	Source     string

	// Outcome
	Value    float64
	Err      *EvalError // Nil on success
	Consumed int
	Trailing string

	// Metadata
	CacheHit  bool
	Duration  time.Duration
	CreatedAt time.Time
}

// Succeeded returns true if the expression evaluated to a value
func (e *Evaluation) Succeeded() bool {
	return e.Err == nil
}

// Validate checks if the evaluation record is consistent
func (e *Evaluation) Validate() error {
	if e.Source == "" {
		return ErrMissingSource
	}

	if e.Err != nil && !e.Err.Kind.Valid() {
		return ErrInvalidErrorKind
	}

	if e.Duration < 0 {
		return ErrNegativeDuration
	}

	return nil
}

// FormattedValue returns the value as text, or the error message on failure
func (e *Evaluation) FormattedValue() string {
	if e.Err != nil {
		return e.Err.Message
	}
	return FormatValue(e.Value)
}

// FormatValue renders a float64 with the shortest round-trip representation.
// Non-finite values render as "+Inf", "-Inf" and "NaN".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// JSONValue returns v when it is finite and its text form otherwise,
// since JSON has no encoding for infinities or NaN.
func JSONValue(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return FormatValue(v)
	}
	return v
}
