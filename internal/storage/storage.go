package storage

import (
	"context"
	"time"

	"github.com/dshills/gocalc-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying evaluation history
type Storage interface {
	// Evaluation operations
	RecordEvaluation(ctx context.Context, eval *Evaluation) error
	GetEvaluation(ctx context.Context, id int64) (*Evaluation, error)
	ListEvaluations(ctx context.Context, filter *ListFilter) ([]*Evaluation, error)
	DeleteEvaluation(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) (deletedCount int, err error)

	// Status operations
	GetStats(ctx context.Context) (*Stats, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

const (
	// DefaultListLimit is used when a filter does not set a limit
	DefaultListLimit = 50
	// MaxListLimit caps the number of rows a single list call returns
	MaxListLimit = 1000
)

// Evaluation represents a stored evaluation
type Evaluation struct {
	ID            int64
	BatchID       string
	Expression    string
	Source        string
	Value         float64
	ErrorKind     string  // Empty on success
	ErrorMessage  string  // Empty on success
	ErrorPosition int
	Consumed      int
	Trailing      string
	CacheHit      bool
	DurationUs    int64
	CreatedAt     time.Time
}

// ListFilter narrows a history listing. Results are newest first.
type ListFilter struct {
	Limit      int
	Offset     int
	BatchID    string
	Source     string
	OnlyErrors bool
}

// Stats contains statistics about the evaluation history
type Stats struct {
	Total           int
	Succeeded       int
	Failed          int
	ErrorsByKind    map[string]int
	LastEvaluatedAt time.Time // Zero when history is empty
	DatabaseSizeMB  float64
}

// Failed returns true if the stored evaluation did not produce a value
func (e *Evaluation) Failed() bool {
	return e.ErrorKind != ""
}

// normalize applies defaults and bounds to a filter
func (f *ListFilter) normalize() ListFilter {
	out := ListFilter{Limit: DefaultListLimit}
	if f != nil {
		out = *f
	}
	if out.Limit <= 0 {
		out.Limit = DefaultListLimit
	}
	if out.Limit > MaxListLimit {
		out.Limit = MaxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// ToTypesEvaluation converts storage Evaluation to types.Evaluation
func (e *Evaluation) ToTypesEvaluation() *types.Evaluation {
	out := &types.Evaluation{
		ID:         e.ID,
		BatchID:    e.BatchID,
		Expression: e.Expression,
		Source:     e.Source,
		Value:      e.Value,
		Consumed:   e.Consumed,
		Trailing:   e.Trailing,
		CacheHit:   e.CacheHit,
		Duration:   time.Duration(e.DurationUs) * time.Microsecond,
		CreatedAt:  e.CreatedAt,
	}
	if e.Failed() {
		out.Err = types.RestoreEvalError(types.ErrorKind(e.ErrorKind), e.ErrorMessage, e.ErrorPosition)
	}
	return out
}

// FromTypesEvaluation converts types.Evaluation to storage Evaluation
func FromTypesEvaluation(e *types.Evaluation) *Evaluation {
	out := &Evaluation{
		ID:         e.ID,
		BatchID:    e.BatchID,
		Expression: e.Expression,
		Source:     e.Source,
		Value:      e.Value,
		Consumed:   e.Consumed,
		Trailing:   e.Trailing,
		CacheHit:   e.CacheHit,
		DurationUs: e.Duration.Microseconds(),
		CreatedAt:  e.CreatedAt,
	}
	if e.Err != nil {
		out.Value = 0
		out.ErrorKind = string(e.Err.Kind)
		out.ErrorMessage = e.Err.Message
		out.ErrorPosition = e.Err.Position
	}
	return out
}
