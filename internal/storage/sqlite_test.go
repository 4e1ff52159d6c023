package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/gocalc-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.db)

	version, err := storage.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestClose(t *testing.T) {
	storage := setupTestDB(t)
	err := storage.Close()
	assert.NoError(t, err)
}

func TestRecordEvaluation(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	eval := &Evaluation{
		Expression: "2 + 3 * 4",
		Source:     types.SourceCLI,
		Value:      14,
		Consumed:   9,
		DurationUs: 12,
	}

	err := storage.RecordEvaluation(ctx, eval)
	require.NoError(t, err)
	assert.Greater(t, eval.ID, int64(0))
	assert.False(t, eval.CreatedAt.IsZero())

	retrieved, err := storage.GetEvaluation(ctx, eval.ID)
	require.NoError(t, err)
	assert.Equal(t, "2 + 3 * 4", retrieved.Expression)
	assert.Equal(t, types.SourceCLI, retrieved.Source)
	assert.Equal(t, 14.0, retrieved.Value)
	assert.Equal(t, 9, retrieved.Consumed)
	assert.Equal(t, int64(12), retrieved.DurationUs)
	assert.False(t, retrieved.Failed())
}

func TestRecordEvaluation_MissingSource(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	err := storage.RecordEvaluation(context.Background(), &Evaluation{Expression: "1"})
	assert.ErrorIs(t, err, ErrInvalidEvaluation)
}

func TestRecordEvaluation_NonFinite(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	tests := []struct {
		name  string
		value float64
		check func(float64) bool
	}{
		{"positive infinity", math.Inf(1), func(v float64) bool { return math.IsInf(v, 1) }},
		{"negative infinity", math.Inf(-1), func(v float64) bool { return math.IsInf(v, -1) }},
		{"nan", math.NaN(), math.IsNaN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &Evaluation{Expression: "x / 0", Source: types.SourceHTTP, Value: tt.value}
			require.NoError(t, storage.RecordEvaluation(ctx, eval))

			retrieved, err := storage.GetEvaluation(ctx, eval.ID)
			require.NoError(t, err)
			assert.True(t, tt.check(retrieved.Value), "got %v", retrieved.Value)
			assert.False(t, retrieved.Failed())
		})
	}
}

func TestRecordEvaluation_SignedValues(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	tests := []struct {
		name     string
		value    float64
		negative bool
	}{
		{"negative zero", math.Copysign(0, -1), true},
		{"positive zero", 0, false},
		{"positive infinity", math.Inf(1), false},
		{"negative infinity", math.Inf(-1), true},
		{"nan", math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &Evaluation{Expression: "(0 - 1) * 0", Source: types.SourceCLI, Value: tt.value}
			require.NoError(t, storage.RecordEvaluation(ctx, eval))

			retrieved, err := storage.GetEvaluation(ctx, eval.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.negative, math.Signbit(retrieved.Value), "got %v", retrieved.Value)
			assert.Equal(t, types.FormatValue(tt.value), types.FormatValue(retrieved.Value))

			listed, err := storage.ListEvaluations(ctx, &ListFilter{Limit: 1})
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Equal(t, eval.ID, listed[0].ID)
			assert.Equal(t, tt.negative, math.Signbit(listed[0].Value))
		})
	}
}

func TestRecordEvaluation_Failure(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	eval := FromTypesEvaluation(&types.Evaluation{
		Expression: "(1 + 2",
		Source:     types.SourceMCP,
		Err:        types.NewEvalError(types.ErrMissingClosingParenthesis, 6),
	})
	require.NoError(t, storage.RecordEvaluation(ctx, eval))

	retrieved, err := storage.GetEvaluation(ctx, eval.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.Failed())
	assert.Equal(t, string(types.KindMissingParenthesis), retrieved.ErrorKind)
	assert.Equal(t, "Missing closing parenthesis", retrieved.ErrorMessage)
	assert.Equal(t, 6, retrieved.ErrorPosition)

	converted := retrieved.ToTypesEvaluation()
	require.NotNil(t, converted.Err)
	assert.ErrorIs(t, converted.Err, types.ErrMissingClosingParenthesis)
	assert.False(t, converted.Succeeded())
}

func TestGetEvaluation_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.GetEvaluation(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEvaluations(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seed := []*Evaluation{
		{Expression: "1", Source: types.SourceCLI, Value: 1},
		{Expression: "2", Source: types.SourceHTTP, Value: 2},
		{Expression: "*", Source: types.SourceHTTP, ErrorKind: string(types.KindInvalidFactor), ErrorMessage: "Invalid factor"},
		{Expression: "3", Source: types.SourceBatch, BatchID: "batch-1", Value: 3},
		{Expression: "4", Source: types.SourceBatch, BatchID: "batch-1", Value: 4},
	}
	for _, eval := range seed {
		require.NoError(t, storage.RecordEvaluation(ctx, eval))
	}

	t.Run("newest first with default limit", func(t *testing.T) {
		evals, err := storage.ListEvaluations(ctx, nil)
		require.NoError(t, err)
		require.Len(t, evals, 5)
		assert.Equal(t, "4", evals[0].Expression)
		assert.Equal(t, "1", evals[4].Expression)
	})

	t.Run("limit and offset", func(t *testing.T) {
		evals, err := storage.ListEvaluations(ctx, &ListFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, evals, 2)
		assert.Equal(t, "3", evals[0].Expression)
		assert.Equal(t, "*", evals[1].Expression)
	})

	t.Run("by batch", func(t *testing.T) {
		evals, err := storage.ListEvaluations(ctx, &ListFilter{BatchID: "batch-1"})
		require.NoError(t, err)
		assert.Len(t, evals, 2)
	})

	t.Run("by source", func(t *testing.T) {
		evals, err := storage.ListEvaluations(ctx, &ListFilter{Source: types.SourceHTTP})
		require.NoError(t, err)
		assert.Len(t, evals, 2)
	})

	t.Run("only errors", func(t *testing.T) {
		evals, err := storage.ListEvaluations(ctx, &ListFilter{OnlyErrors: true})
		require.NoError(t, err)
		require.Len(t, evals, 1)
		assert.Equal(t, "*", evals[0].Expression)
	})
}

func TestListFilter_Normalize(t *testing.T) {
	var nilFilter *ListFilter
	assert.Equal(t, DefaultListLimit, nilFilter.normalize().Limit)

	f := (&ListFilter{Limit: 5000, Offset: -1}).normalize()
	assert.Equal(t, MaxListLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)
}

func TestDeleteEvaluation(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	eval := &Evaluation{Expression: "1", Source: types.SourceCLI, Value: 1}
	require.NoError(t, storage.RecordEvaluation(ctx, eval))

	require.NoError(t, storage.DeleteEvaluation(ctx, eval.ID))

	_, err := storage.GetEvaluation(ctx, eval.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = storage.DeleteEvaluation(ctx, eval.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearHistory(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, storage.RecordEvaluation(ctx, &Evaluation{Expression: "1", Source: types.SourceCLI, Value: 1}))
	}

	deleted, err := storage.ClearHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	stats, err := storage.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestGetStats(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()

	t.Run("empty history", func(t *testing.T) {
		stats, err := storage.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total)
		assert.True(t, stats.LastEvaluatedAt.IsZero())
		assert.Empty(t, stats.ErrorsByKind)
	})

	seed := []*Evaluation{
		{Expression: "1", Source: types.SourceCLI, Value: 1},
		{Expression: "", Source: types.SourceCLI, ErrorKind: string(types.KindInvalidFactor), ErrorMessage: "Invalid factor"},
		{Expression: "*", Source: types.SourceCLI, ErrorKind: string(types.KindInvalidFactor), ErrorMessage: "Invalid factor"},
		{Expression: "1..", Source: types.SourceCLI, ErrorKind: string(types.KindInvalidNumber), ErrorMessage: "Invalid number"},
	}
	for _, eval := range seed {
		require.NoError(t, storage.RecordEvaluation(ctx, eval))
	}

	t.Run("counts", func(t *testing.T) {
		stats, err := storage.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 1, stats.Succeeded)
		assert.Equal(t, 3, stats.Failed)
		assert.Equal(t, 2, stats.ErrorsByKind[string(types.KindInvalidFactor)])
		assert.Equal(t, 1, stats.ErrorsByKind[string(types.KindInvalidNumber)])
		assert.WithinDuration(t, time.Now(), stats.LastEvaluatedAt, time.Minute)
	})
}

func TestTransaction(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)

		require.NoError(t, tx.RecordEvaluation(ctx, &Evaluation{Expression: "1", Source: types.SourceBatch, BatchID: "b1", Value: 1}))
		require.NoError(t, tx.RecordEvaluation(ctx, &Evaluation{Expression: "2", Source: types.SourceBatch, BatchID: "b1", Value: 2}))

		stats, err := tx.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Total)

		require.NoError(t, tx.Commit())

		evals, err := storage.ListEvaluations(ctx, &ListFilter{BatchID: "b1"})
		require.NoError(t, err)
		assert.Len(t, evals, 2)
	})

	t.Run("rollback", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)

		require.NoError(t, tx.RecordEvaluation(ctx, &Evaluation{Expression: "3", Source: types.SourceBatch, BatchID: "b2", Value: 3}))
		require.NoError(t, tx.Rollback())

		evals, err := storage.ListEvaluations(ctx, &ListFilter{BatchID: "b2"})
		require.NoError(t, err)
		assert.Empty(t, evals)
	})

	t.Run("nested transactions rejected", func(t *testing.T) {
		tx, err := storage.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
	})
}

func TestEvaluationConversion(t *testing.T) {
	original := &types.Evaluation{
		BatchID:    "b",
		Expression: "2 + 2 abc",
		Source:     types.SourceHTTP,
		Value:      4,
		Consumed:   6,
		Trailing:   "abc",
		CacheHit:   true,
		Duration:   250 * time.Microsecond,
	}

	stored := FromTypesEvaluation(original)
	assert.Equal(t, int64(250), stored.DurationUs)
	assert.False(t, stored.Failed())

	back := stored.ToTypesEvaluation()
	assert.Equal(t, original.Expression, back.Expression)
	assert.Equal(t, original.Trailing, back.Trailing)
	assert.Equal(t, original.Duration, back.Duration)
	assert.True(t, back.CacheHit)
	assert.Nil(t, back.Err)
}

func TestJournalMode(t *testing.T) {
	t.Run("file database uses WAL", func(t *testing.T) {
		storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		defer storage.Close()

		var mode string
		require.NoError(t, storage.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
	})

	t.Run("memory database keeps memory journal", func(t *testing.T) {
		storage := setupTestDB(t)
		defer storage.Close()

		var mode string
		require.NoError(t, storage.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "memory", mode)
	})
}
