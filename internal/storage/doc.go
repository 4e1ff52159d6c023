// Package storage provides SQLite-based persistence for evaluation history.
//
// Every expression evaluated through the service can be recorded together with
// its outcome, where it came from (mcp, http, cli, tui, batch) and how long it
// took.
//
// # Database Schema
//
// Tables:
//   - schema_version: Applied migration versions (semver)
//   - evaluations: One row per evaluated expression
//
// SQLite REAL columns cannot hold NaN, so a successful value is stored twice:
// as REAL when finite, and always as text ("14", "+Inf", "NaN"). The text
// column is authoritative when reading back.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.gocalc/history.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.RecordEvaluation(ctx, &storage.Evaluation{
//	    Expression: "2 + 3 * 4",
//	    Source:     types.SourceCLI,
//	    Value:      14,
//	})
//
// # Transactions
//
// Batches are recorded atomically:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	for _, eval := range evals {
//	    if err := tx.RecordEvaluation(ctx, eval); err != nil {
//	        return err
//	    }
//	}
//
//	return tx.Commit()
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with
// -tags sqlite_cgo switches to github.com/mattn/go-sqlite3. DriverName and
// BuildMode report which one was compiled in.
package storage
