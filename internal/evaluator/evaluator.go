// Package evaluator is the evaluation service shared by every host.
//
// A Service wraps the parser with an optional result cache, optional history
// storage, metrics, tracing and logging. Hosts (MCP, HTTP, CLI, TUI) call
// Evaluate or EvaluateBatch and render the returned types.Evaluation.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/gocalc-mcp/internal/cache"
	"github.com/dshills/gocalc-mcp/internal/observability"
	"github.com/dshills/gocalc-mcp/internal/parser"
	"github.com/dshills/gocalc-mcp/internal/storage"
	"github.com/dshills/gocalc-mcp/pkg/types"
)

var (
	// ErrHistoryDisabled is returned by history operations when no storage is configured
	ErrHistoryDisabled = errors.New("history is disabled")
	ErrEmptyBatch      = errors.New("batch contains no expressions")
	ErrBatchTooLarge   = fmt.Errorf("batch exceeds %d expressions", MaxBatchSize)
)

const (
	// DefaultWorkers is the batch concurrency used when Config.Workers is not positive
	DefaultWorkers = 4
	// MaxBatchSize caps the number of expressions in one batch
	MaxBatchSize = 1000
)

// Config contains configuration for the service
type Config struct {
	MaxDepth  int // Parenthesis nesting limit (0 = unlimited)
	CacheSize int // Result cache capacity (0 = no cache)
	Workers   int // Concurrent evaluations per batch

	Metrics observability.MetricsRecorder // Default: NoopMetrics
	Spans   observability.SpanManager     // Default: NoopSpanManager
	Logger  *slog.Logger                  // Nil disables logging
}

// DefaultConfig returns the configuration used when New is given nil
func DefaultConfig() *Config {
	return &Config{
		CacheSize: cache.DefaultSize,
		Workers:   DefaultWorkers,
	}
}

// Request is a single evaluation request
type Request struct {
	Expression string
	Source     string
}

// BatchResult is the outcome of EvaluateBatch
type BatchResult struct {
	BatchID     string
	Evaluations []*types.Evaluation // Same order as the input
	Succeeded   int
	Failed      int
	Duration    time.Duration
}

// Service evaluates expressions and records them
type Service struct {
	parser  *parser.Parser
	cache   *cache.Cache    // nil when caching is disabled
	storage storage.Storage // nil when history is disabled

	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	logger  *slog.Logger
	workers int
}

// New creates a Service. store may be nil to disable history.
func New(store storage.Storage, cfg *Config) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Service{
		parser:  parser.New(parser.WithMaxDepth(cfg.MaxDepth)),
		storage: store,
		metrics: cfg.Metrics,
		spans:   cfg.Spans,
		logger:  cfg.Logger,
		workers: cfg.Workers,
	}
	if cfg.CacheSize > 0 {
		s.cache = cache.New(cfg.CacheSize)
	}
	if s.metrics == nil {
		s.metrics = observability.NoopMetrics{}
	}
	if s.spans == nil {
		s.spans = observability.NoopSpanManager{}
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	return s
}

// Evaluate evaluates one expression and records it in history.
//
// Evaluation failures are reported on the returned Evaluation, not as an
// error. The error is non-nil only if ctx is done or the request has no source.
// History write failures are logged and otherwise ignored.
func (s *Service) Evaluate(ctx context.Context, req Request) (*types.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Source == "" {
		return nil, types.ErrMissingSource
	}

	eval := s.evaluate(ctx, req.Expression, req.Source, "")
	if s.storage != nil {
		s.record(ctx, s.storage, eval)
	}
	return eval, nil
}

// EvaluateBatch evaluates expressions concurrently. All evaluations share a
// batch ID and are written to history in a single transaction.
func (s *Service) EvaluateBatch(ctx context.Context, expressions []string, source string) (*BatchResult, error) {
	if source == "" {
		return nil, types.ErrMissingSource
	}
	if len(expressions) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(expressions) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	start := time.Now()
	batchID := uuid.New().String()

	ctx, span := s.spans.StartBatchSpan(ctx, batchID, len(expressions))

	evals := make([]*types.Evaluation, len(expressions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, expr := range expressions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			evals[i] = s.evaluate(gctx, expr, source, batchID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.spans.EndSpanWithError(span, err)
		return nil, err
	}

	result := &BatchResult{
		BatchID:     batchID,
		Evaluations: evals,
	}
	for _, eval := range evals {
		if eval.Succeeded() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	if s.storage != nil {
		if err := s.recordBatch(ctx, evals); err != nil {
			observability.LogHistoryError(s.logger, err)
		}
	}

	result.Duration = time.Since(start)
	s.metrics.RecordBatch(ctx, len(expressions), result.Failed, result.Duration)
	observability.LogBatch(s.logger, batchID, len(expressions), result.Failed, result.Duration)
	s.spans.EndSpanWithError(span, nil)

	return result, nil
}

// evaluate runs one expression through the cache and parser
func (s *Service) evaluate(ctx context.Context, expr, source, batchID string) *types.Evaluation {
	_, span := s.spans.StartEvaluationSpan(ctx, source)
	start := time.Now()

	entry, hit := s.lookup(expr)
	if !hit {
		entry = s.compute(expr)
		if s.cache != nil {
			s.cache.Set(entry)
		}
	}

	eval := &types.Evaluation{
		BatchID:    batchID,
		Expression: expr,
		Source:     source,
		Value:      entry.Value,
		Consumed:   entry.Consumed,
		Trailing:   entry.Trailing,
		CacheHit:   hit,
		Duration:   time.Since(start),
		CreatedAt:  time.Now(),
	}

	var kind string
	var spanErr error
	var evalErr *types.EvalError
	if errors.As(entry.Err, &evalErr) {
		eval.Err = evalErr
		eval.Value = 0
		kind = string(evalErr.Kind)
		spanErr = evalErr
		observability.LogEvaluationError(s.logger, expr, evalErr, evalErr.Position)
	} else {
		observability.LogEvaluation(s.logger, expr, types.FormatValue(eval.Value), eval.Duration, hit)
	}

	s.metrics.RecordEvaluation(ctx, eval.Duration, kind, hit)
	s.spans.EndSpanWithError(span, spanErr)
	return eval
}

func (s *Service) lookup(expr string) (cache.Entry, bool) {
	if s.cache == nil {
		return cache.Entry{}, false
	}
	return s.cache.Get(expr)
}

func (s *Service) compute(expr string) cache.Entry {
	result, err := s.parser.Parse(expr)
	if err != nil {
		return cache.Entry{Expression: expr, Err: err}
	}
	return cache.Entry{
		Expression: expr,
		Value:      result.Value,
		Consumed:   result.Consumed,
		Trailing:   result.Trailing,
	}
}

// record persists one evaluation, filling in its ID
func (s *Service) record(ctx context.Context, st storage.Storage, eval *types.Evaluation) {
	rec := storage.FromTypesEvaluation(eval)
	if err := st.RecordEvaluation(ctx, rec); err != nil {
		observability.LogHistoryError(s.logger, err)
		return
	}
	eval.ID = rec.ID
}

// recordBatch persists a batch atomically
func (s *Service) recordBatch(ctx context.Context, evals []*types.Evaluation) error {
	tx, err := s.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	recs := make([]*storage.Evaluation, len(evals))
	for i, eval := range evals {
		recs[i] = storage.FromTypesEvaluation(eval)
		if err := tx.RecordEvaluation(ctx, recs[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	for i, rec := range recs {
		evals[i].ID = rec.ID
	}
	return nil
}

// History lists stored evaluations, newest first
func (s *Service) History(ctx context.Context, filter *storage.ListFilter) ([]*types.Evaluation, error) {
	if s.storage == nil {
		return nil, ErrHistoryDisabled
	}
	recs, err := s.storage.ListEvaluations(ctx, filter)
	if err != nil {
		return nil, err
	}
	evals := make([]*types.Evaluation, len(recs))
	for i, rec := range recs {
		evals[i] = rec.ToTypesEvaluation()
	}
	return evals, nil
}

// Lookup returns one stored evaluation
func (s *Service) Lookup(ctx context.Context, id int64) (*types.Evaluation, error) {
	if s.storage == nil {
		return nil, ErrHistoryDisabled
	}
	rec, err := s.storage.GetEvaluation(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.ToTypesEvaluation(), nil
}

// ClearHistory deletes all stored evaluations and returns how many were removed
func (s *Service) ClearHistory(ctx context.Context) (int, error) {
	if s.storage == nil {
		return 0, ErrHistoryDisabled
	}
	return s.storage.ClearHistory(ctx)
}

// Stats returns history statistics
func (s *Service) Stats(ctx context.Context) (*storage.Stats, error) {
	if s.storage == nil {
		return nil, ErrHistoryDisabled
	}
	return s.storage.GetStats(ctx)
}

// HistoryEnabled reports whether evaluations are being recorded
func (s *Service) HistoryEnabled() bool {
	return s.storage != nil
}

// MaxDepth returns the nesting limit (0 = unlimited)
func (s *Service) MaxDepth() int {
	return s.parser.MaxDepth()
}

// CacheStats returns the number of cached entries and the cache capacity.
// Both are zero when caching is disabled.
func (s *Service) CacheStats() (entries, capacity int) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.Len(), s.cache.Size()
}
