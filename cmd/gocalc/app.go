package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/gocalc-mcp/internal/config"
	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/internal/observability"
	"github.com/dshills/gocalc-mcp/internal/storage"
)

// app is the wired evaluator stack for one command invocation
type app struct {
	settings  config.Settings
	logger    *slog.Logger
	store     storage.Storage // nil when history is disabled
	telemetry *observability.Telemetry
	service   *evaluator.Service
}

// loadSettings resolves the config file and environment, then applies flags
func loadSettings(cmd *cobra.Command, opts *options) (config.Settings, error) {
	settings, err := config.Load(opts.configPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		settings.DBPath = opts.dbPath
	}
	if flags.Changed("no-history") && opts.noHistory {
		settings.HistoryEnabled = false
	}
	if flags.Changed("max-depth") {
		settings.MaxDepth = opts.maxDepth
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// newApp builds the logger, history store, telemetry and evaluator.
// Logs go to stderr; stdout carries results and the MCP protocol.
func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(os.Stderr, settings.LogLevel, settings.LogFormat)
	if err != nil {
		return nil, err
	}

	a := &app{settings: settings, logger: logger}

	if settings.HistoryEnabled {
		store, err := openStore(settings)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	a.telemetry = observability.Setup(logger, settings.MetricsEnabled, settings.TracingEnabled)

	svcCfg := &evaluator.Config{
		MaxDepth:  settings.MaxDepth,
		CacheSize: settings.CacheSize,
		Workers:   settings.Workers,
		Metrics:   a.telemetry.Metrics,
		Spans:     a.telemetry.Spans,
		Logger:    logger,
	}
	a.service = evaluator.New(a.store, svcCfg)

	return a, nil
}

// openStore creates the database directory and opens the history store
func openStore(settings config.Settings) (storage.Storage, error) {
	dbPath, err := settings.ResolvedDBPath()
	if err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

// Close flushes telemetry and closes the history store
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.settings.ShutdownTimeout)
	defer cancel()

	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close history database", slog.String("error", err.Error()))
		}
	}
}
