// Package config loads gocalc settings from YAML or JSON files and the
// environment.
//
// Config is a thin typed view over a map[string]any; every accessor takes a
// default that is returned when the key is missing or has the wrong type.
//
//	cfg, err := config.FromFile("gocalc.yaml")
//	if err != nil {
//	    return err
//	}
//	size := cfg.Int("cache_size", 1024)
//
// Settings is the resolved configuration used by the binaries. Load applies,
// in order: built-in defaults, the config file (if any), then GOCALC_*
// environment variables.
package config
