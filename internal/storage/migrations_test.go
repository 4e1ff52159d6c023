package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dshills/gocalc-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrations_Idempotent(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, storage.db))
	require.NoError(t, ApplyMigrations(ctx, storage.db))

	var count int
	err := storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(AllMigrations), count)

	version, err := SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestRollbackMigration(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()

	require.NoError(t, RollbackMigration(ctx, storage.db))
	version, err := SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)

	require.NoError(t, RollbackMigration(ctx, storage.db))
	version, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", version)

	err = RollbackMigration(ctx, storage.db)
	assert.Error(t, err)

	// Reapplying restores a usable schema
	require.NoError(t, ApplyMigrations(ctx, storage.db))
	require.NoError(t, storage.RecordEvaluation(ctx, &Evaluation{Expression: "1", Source: types.SourceCLI, Value: 1}))
}

func TestSchemaRejectsInconsistentRows(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	// A row can be neither both a success and a failure nor neither
	_, err := storage.db.ExecContext(context.Background(),
		"INSERT INTO evaluations (expression, source, value_text, error_kind) VALUES ('1', 'cli', '1', 'invalid_factor')")
	assert.Error(t, err)

	_, err = storage.db.ExecContext(context.Background(),
		"INSERT INTO evaluations (expression, source) VALUES ('1', 'cli')")
	assert.Error(t, err)
}

func TestReopenPreservesHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	first, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.RecordEvaluation(ctx, &Evaluation{Expression: "6 * 7", Source: types.SourceCLI, Value: 42}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer second.Close()

	evals, err := second.ListEvaluations(ctx, nil)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, 42.0, evals[0].Value)

	version, err := second.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}
