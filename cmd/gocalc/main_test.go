package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/internal/storage"
)

// run executes the root command and returns its stdout
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	t.Setenv("GOCALC_CONFIG", "")
	t.Setenv("GOCALC_DB_PATH", "")
	t.Setenv("GOCALC_LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestEval(t *testing.T) {
	out, err := run(t, "", "--no-history", "2+3", "(1+2)*4", "7/2")
	require.NoError(t, err)
	assert.Equal(t, "5\n12\n3.5\n", out)
}

func TestEval_Failure(t *testing.T) {
	out, err := run(t, "", "--no-history", "1+1", "2+")
	require.ErrorIs(t, err, errEvaluationFailed)
	assert.Contains(t, out, "2\n")
	assert.Contains(t, out, "Invalid factor")
}

func TestEval_Trailing(t *testing.T) {
	out, err := run(t, "", "--no-history", "2+3)")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "5"))
	assert.Contains(t, out, "ignored")
}

func TestEval_MaxDepth(t *testing.T) {
	out, err := run(t, "", "--no-history", "--max-depth", "1", "((1))")
	require.ErrorIs(t, err, errEvaluationFailed)
	assert.Contains(t, out, "Maximum nesting depth exceeded")
}

func TestEval_JSON(t *testing.T) {
	out, err := run(t, "", "--no-history", "--json", "1/0", "(")
	require.ErrorIs(t, err, errEvaluationFailed)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "1/0", first["expression"])
	assert.Equal(t, "+Inf", first["value"])
	assert.NotContains(t, first, "error")

	assert.Equal(t, "invalid_factor", second["kind"])
	assert.Contains(t, second, "position")
}

func TestEval_Stdin(t *testing.T) {
	out, err := run(t, "1+1\n\n  2*3  \n", "--no-history", "-")
	require.NoError(t, err)
	assert.Equal(t, "2\n6\n", out)
}

func TestEval_NoArgsShowsHelp(t *testing.T) {
	out, err := run(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestHistoryCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nested", "history.db")

	_, err := run(t, "", "--db", db, "1+2", "3*")
	require.ErrorIs(t, err, errEvaluationFailed)

	out, err := run(t, "", "--db", db, "--json", "history")
	require.NoError(t, err)
	var entries []historyEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "3*", entries[0].Expression)
	assert.Equal(t, "Invalid factor", entries[0].Error)
	assert.Equal(t, "invalid_factor", entries[0].Kind)
	require.NotNil(t, entries[0].Position)
	assert.Equal(t, 2, *entries[0].Position)
	assert.Nil(t, entries[1].Position)
	assert.Equal(t, "1+2", entries[1].Expression)
	assert.Equal(t, float64(3), entries[1].Value)
	assert.Equal(t, "cli", entries[1].Source)

	out, err = run(t, "", "--db", db, "history", "--errors")
	require.NoError(t, err)
	assert.Contains(t, out, "3*")
	assert.NotContains(t, out, "1+2")

	out, err = run(t, "", "--db", db, "--json", "stats")
	require.NoError(t, err)
	var stats storage.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Failed)

	out, err = run(t, "", "--db", db, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2")
	assert.Contains(t, out, "invalid_factor: 1")

	out, err = run(t, "", "--db", db, "history", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 evaluations\n", out)

	out, err = run(t, "", "--db", db, "history")
	require.NoError(t, err)
	assert.Equal(t, "No evaluations recorded\n", out)
}

func TestHistory_Disabled(t *testing.T) {
	_, err := run(t, "", "--no-history", "history")
	assert.ErrorIs(t, err, evaluator.ErrHistoryDisabled)

	_, err = run(t, "", "--no-history", "stats")
	assert.ErrorIs(t, err, evaluator.ErrHistoryDisabled)
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "", "--no-history", "--max-depth=-1", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
	assert.Contains(t, out, "SQLite Driver: "+storage.DriverName)
}

func TestCollectExpressions(t *testing.T) {
	exprs, err := collectExpressions(strings.NewReader("4\n5\n"), []string{"1", "-", "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "5", "2"}, exprs)
}
