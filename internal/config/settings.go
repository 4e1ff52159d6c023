package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Configuration keys
const (
	KeyDBPath          = "db_path"
	KeyHistoryEnabled  = "history_enabled"
	KeyCacheSize       = "cache_size"
	KeyMaxDepth        = "max_depth"
	KeyWorkers         = "workers"
	KeyHTTPAddr        = "http_addr"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyMetricsEnabled  = "metrics_enabled"
	KeyTracingEnabled  = "tracing_enabled"
	KeyShutdownTimeout = "shutdown_timeout"
)

// Environment variables
const (
	EnvConfig   = "GOCALC_CONFIG"
	EnvDBPath   = "GOCALC_DB_PATH"
	EnvLogLevel = "GOCALC_LOG_LEVEL"
	EnvHTTPAddr = "GOCALC_HTTP_ADDR"
)

const (
	// DefaultDBPath is the default location of the history database
	DefaultDBPath          = "~/.gocalc/history.db"
	DefaultCacheSize       = 1024
	DefaultWorkers         = 4
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Settings is the resolved runtime configuration.
type Settings struct {
	DBPath          string
	HistoryEnabled  bool
	CacheSize       int // 0 disables the result cache
	MaxDepth        int // 0 means unlimited nesting
	Workers         int
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	MetricsEnabled  bool
	TracingEnabled  bool
	ShutdownTimeout time.Duration
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DBPath:          DefaultDBPath,
		HistoryEnabled:  true,
		CacheSize:       DefaultCacheSize,
		MaxDepth:        0,
		Workers:         DefaultWorkers,
		HTTPAddr:        DefaultHTTPAddr,
		LogLevel:        "info",
		LogFormat:       "text",
		MetricsEnabled:  false,
		TracingEnabled:  false,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// FromConfig overlays the keys present in cfg onto the defaults.
func FromConfig(cfg Config) Settings {
	d := Defaults()
	return Settings{
		DBPath:          cfg.String(KeyDBPath, d.DBPath),
		HistoryEnabled:  cfg.Bool(KeyHistoryEnabled, d.HistoryEnabled),
		CacheSize:       cfg.Int(KeyCacheSize, d.CacheSize),
		MaxDepth:        cfg.Int(KeyMaxDepth, d.MaxDepth),
		Workers:         cfg.Int(KeyWorkers, d.Workers),
		HTTPAddr:        cfg.String(KeyHTTPAddr, d.HTTPAddr),
		LogLevel:        cfg.String(KeyLogLevel, d.LogLevel),
		LogFormat:       cfg.String(KeyLogFormat, d.LogFormat),
		MetricsEnabled:  cfg.Bool(KeyMetricsEnabled, d.MetricsEnabled),
		TracingEnabled:  cfg.Bool(KeyTracingEnabled, d.TracingEnabled),
		ShutdownTimeout: cfg.Duration(KeyShutdownTimeout, d.ShutdownTimeout),
	}
}

// Load resolves settings from path (or $GOCALC_CONFIG when path is empty)
// and the environment. A missing path means defaults only.
func Load(path string) (Settings, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := New(nil)
	if path != "" {
		loaded, err := FromFile(path)
		if err != nil {
			return Settings{}, err
		}
		cfg = loaded
	}

	s := FromConfig(cfg)
	s.applyEnv()

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		s.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		s.HTTPAddr = v
	}
}

// Validate checks the settings for values the service cannot run with.
func (s Settings) Validate() error {
	var errs []error
	if s.HistoryEnabled && s.DBPath == "" {
		errs = append(errs, fmt.Errorf("%s is required when history is enabled", KeyDBPath))
	}
	if s.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative", KeyCacheSize))
	}
	if s.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative", KeyMaxDepth))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyWorkers))
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyShutdownTimeout))
	}
	return errors.Join(errs...)
}

// ResolvedDBPath expands a leading "~" in DBPath to the user's home directory.
// ":memory:" and other paths are returned unchanged.
func (s Settings) ResolvedDBPath() (string, error) {
	if s.DBPath == "~" || strings.HasPrefix(s.DBPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(s.DBPath, "~")), nil
	}
	return s.DBPath, nil
}
