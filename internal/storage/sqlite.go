package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/gocalc-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidEvaluation is returned when a record fails validation
	ErrInvalidEvaluation = errors.New("invalid evaluation")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Evaluation operations

const evaluationColumns = `
	id, batch_id, expression, source, value, value_text,
	error_kind, error_message, error_position, consumed, trailing,
	cache_hit, duration_us, created_at`

// recordEvaluationWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) recordEvaluationWithQuerier(ctx context.Context, q querier, eval *Evaluation) error {
	if eval.Source == "" {
		return fmt.Errorf("%w: %v", ErrInvalidEvaluation, types.ErrMissingSource)
	}

	query := `
		INSERT INTO evaluations (
			batch_id, expression, source, value, value_text,
			error_kind, error_message, error_position, consumed, trailing,
			cache_hit, duration_us, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// SQLite REAL cannot hold NaN, so value is NULL unless finite and the
	// text form is authoritative
	var value sql.NullFloat64
	var valueText sql.NullString
	if !eval.Failed() {
		valueText = sql.NullString{String: types.FormatValue(eval.Value), Valid: true}
		if !math.IsInf(eval.Value, 0) && !math.IsNaN(eval.Value) {
			value = sql.NullFloat64{Float64: eval.Value, Valid: true}
		}
	}

	now := time.Now()
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = now
	}

	result, err := q.ExecContext(ctx, query,
		nullString(eval.BatchID), eval.Expression, eval.Source, value, valueText,
		nullString(eval.ErrorKind), nullString(eval.ErrorMessage), eval.ErrorPosition,
		eval.Consumed, eval.Trailing, eval.CacheHit, eval.DurationUs, eval.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record evaluation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	eval.ID = id
	return nil
}

func (s *SQLiteStorage) RecordEvaluation(ctx context.Context, eval *Evaluation) error {
	return s.recordEvaluationWithQuerier(ctx, s.querier(), eval)
}

// getEvaluationWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEvaluationWithQuerier(ctx context.Context, q querier, id int64) (*Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = ?`

	eval, err := scanEvaluation(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return eval, nil
}

func (s *SQLiteStorage) GetEvaluation(ctx context.Context, id int64) (*Evaluation, error) {
	return s.getEvaluationWithQuerier(ctx, s.querier(), id)
}

// listEvaluationsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listEvaluationsWithQuerier(ctx context.Context, q querier, filter *ListFilter) ([]*Evaluation, error) {
	f := filter.normalize()

	var where []string
	var args []interface{}
	if f.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if f.OnlyErrors {
		where = append(where, "error_kind IS NOT NULL")
	}

	query := `SELECT ` + evaluationColumns + ` FROM evaluations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	evals := make([]*Evaluation, 0)
	for rows.Next() {
		eval, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, eval)
	}
	return evals, rows.Err()
}

func (s *SQLiteStorage) ListEvaluations(ctx context.Context, filter *ListFilter) ([]*Evaluation, error) {
	return s.listEvaluationsWithQuerier(ctx, s.querier(), filter)
}

// deleteEvaluationWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteEvaluationWithQuerier(ctx context.Context, q querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM evaluations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete evaluation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteEvaluation(ctx context.Context, id int64) error {
	return s.deleteEvaluationWithQuerier(ctx, s.querier(), id)
}

// clearHistoryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) clearHistoryWithQuerier(ctx context.Context, q querier) (int, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM evaluations`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *SQLiteStorage) ClearHistory(ctx context.Context) (int, error) {
	return s.clearHistoryWithQuerier(ctx, s.querier())
}

// Status operations

// getStatsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getStatsWithQuerier(ctx context.Context, q querier) (*Stats, error) {
	stats := &Stats{
		ErrorsByKind: make(map[string]int),
	}

	// Count totals
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN error_kind IS NULL THEN 1 ELSE 0 END), 0)
		FROM evaluations
	`).Scan(&stats.Total, &stats.Succeeded)
	if err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Succeeded

	// Count failures by kind
	rows, err := q.QueryContext(ctx, `
		SELECT error_kind, COUNT(*) FROM evaluations
		WHERE error_kind IS NOT NULL
		GROUP BY error_kind
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ErrorsByKind[kind] = count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Most recent evaluation
	var lastAt time.Time
	err = q.QueryRowContext(ctx, `SELECT created_at FROM evaluations ORDER BY id DESC LIMIT 1`).Scan(&lastAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	stats.LastEvaluatedAt = lastAt

	// Calculate database size
	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		err = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		if err == nil {
			stats.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return stats, nil
}

func (s *SQLiteStorage) GetStats(ctx context.Context) (*Stats, error) {
	return s.getStatsWithQuerier(ctx, s.querier())
}

// Helper functions

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEvaluation reads one row selected with evaluationColumns
func scanEvaluation(row rowScanner) (*Evaluation, error) {
	var eval Evaluation
	var batchID, valueText, errorKind, errorMessage sql.NullString
	var value sql.NullFloat64

	err := row.Scan(
		&eval.ID, &batchID, &eval.Expression, &eval.Source, &value, &valueText,
		&errorKind, &errorMessage, &eval.ErrorPosition, &eval.Consumed, &eval.Trailing,
		&eval.CacheHit, &eval.DurationUs, &eval.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	eval.BatchID = batchID.String
	eval.ErrorKind = errorKind.String
	eval.ErrorMessage = errorMessage.String

	// value_text is authoritative: REAL cannot hold NaN and SQLite folds -0.0 to 0
	switch {
	case valueText.Valid:
		v, err := strconv.ParseFloat(valueText.String, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt value %q for evaluation %d: %w", valueText.String, eval.ID, err)
		}
		eval.Value = v
	case value.Valid:
		eval.Value = value.Float64
	}

	return &eval, nil
}

// nullString maps empty strings to NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Transaction operations

func (t *sqliteTx) RecordEvaluation(ctx context.Context, eval *Evaluation) error {
	return t.storage.recordEvaluationWithQuerier(ctx, t.querier(), eval)
}

func (t *sqliteTx) GetEvaluation(ctx context.Context, id int64) (*Evaluation, error) {
	return t.storage.getEvaluationWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListEvaluations(ctx context.Context, filter *ListFilter) ([]*Evaluation, error) {
	return t.storage.listEvaluationsWithQuerier(ctx, t.querier(), filter)
}

func (t *sqliteTx) DeleteEvaluation(ctx context.Context, id int64) error {
	return t.storage.deleteEvaluationWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ClearHistory(ctx context.Context) (int, error) {
	return t.storage.clearHistoryWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) GetStats(ctx context.Context) (*Stats, error) {
	return t.storage.getStatsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
