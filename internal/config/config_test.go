package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/gocalc-mcp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cfg := config.New(nil)
	assert.NotNil(t, cfg.Raw())
	assert.False(t, cfg.Has("anything"))
}

func TestAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":      "gocalc",
		"count":     12,
		"count64":   int64(7),
		"ratio":     2.0,
		"fraction":  2.5,
		"enabled":   true,
		"timeout":   "250ms",
		"seconds":   3,
		"wrongtype": []string{"a"},
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", cfg.String("name", "x"), "gocalc"},
		{"string missing", cfg.String("missing", "x"), "x"},
		{"string wrong type", cfg.String("count", "x"), "x"},
		{"int", cfg.Int("count", 0), 12},
		{"int64", cfg.Int("count64", 0), 7},
		{"whole float", cfg.Int("ratio", 0), 2},
		{"fractional float", cfg.Int("fraction", 9), 9},
		{"bool", cfg.Bool("enabled", false), true},
		{"bool wrong type", cfg.Bool("name", false), false},
		{"duration string", cfg.Duration("timeout", 0), 250 * time.Millisecond},
		{"duration seconds", cfg.Duration("seconds", 0), 3 * time.Second},
		{"duration wrong type", cfg.Duration("wrongtype", time.Minute), time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "gocalc.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache_size: 64\nhistory_enabled: false\nshutdown_timeout: 2s\n"), 0o600))

		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Int("cache_size", 0))
		assert.False(t, cfg.Bool("history_enabled", true))
		assert.Equal(t, 2*time.Second, cfg.Duration("shutdown_timeout", 0))
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "gocalc.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"workers": 8, "log_format": "json"}`), 0o600))

		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Int("workers", 0))
		assert.Equal(t, "json", cfg.String("log_format", ""))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "gocalc.toml")
		require.NoError(t, os.WriteFile(path, []byte("workers = 1"), 0o600))

		_, err := config.FromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := config.FromYAML([]byte("workers: [1, 2"))
		assert.Error(t, err)
	})
}

func TestDefaults(t *testing.T) {
	s := config.Defaults()
	assert.Equal(t, config.DefaultDBPath, s.DBPath)
	assert.True(t, s.HistoryEnabled)
	assert.Equal(t, config.DefaultCacheSize, s.CacheSize)
	assert.Equal(t, 0, s.MaxDepth)
	assert.NoError(t, s.Validate())
}

func TestLoad(t *testing.T) {
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvDBPath, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvHTTPAddr, "")

	t.Run("defaults without file", func(t *testing.T) {
		s, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Defaults(), s)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gocalc.yml")
		require.NoError(t, os.WriteFile(path, []byte("max_depth: 32\nworkers: 2\n"), 0o600))

		s, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 32, s.MaxDepth)
		assert.Equal(t, 2, s.Workers)
		assert.Equal(t, config.DefaultCacheSize, s.CacheSize)
	})

	t.Run("config path from environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache_size: 0\n"), 0o600))
		t.Setenv(config.EnvConfig, path)

		s, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, 0, s.CacheSize)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gocalc.yaml")
		require.NoError(t, os.WriteFile(path, []byte("db_path: /tmp/file.db\nlog_level: warn\n"), 0o600))
		t.Setenv(config.EnvDBPath, ":memory:")
		t.Setenv(config.EnvLogLevel, "debug")
		t.Setenv(config.EnvHTTPAddr, ":9999")

		s, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":memory:", s.DBPath)
		assert.Equal(t, "debug", s.LogLevel)
		assert.Equal(t, ":9999", s.HTTPAddr)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 0\ncache_size: -1\n"), 0o600))

		_, err := config.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "workers")
		assert.Contains(t, err.Error(), "cache_size")
	})
}

func TestResolvedDBPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	s := config.Defaults()
	path, err := s.ResolvedDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gocalc", "history.db"), path)

	s.DBPath = ":memory:"
	path, err = s.ResolvedDBPath()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", path)
}
