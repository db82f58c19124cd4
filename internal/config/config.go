// Package config loads the daemon's optional on-disk defaults: rows/cols
// for freshly spawned sessions, the session cap, and the idle-exit
// timeout. A missing file is not an error; every field simply falls back
// to its compiled-in default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's optional ~/.ptyd/config.yaml.
type Config struct {
	DefaultRows int
	DefaultCols int
	// SessionCap is read from the file but not applied: the session
	// manager enforces its own fixed cap (sessionmgr.MaxSessions).
	SessionCap      int
	IdleExitTimeout time.Duration
}

// Defaults returns the compiled-in configuration used when no file is
// present, or when a field is left unset in the file.
func Defaults() Config {
	return Config{
		DefaultRows:     24,
		DefaultCols:     80,
		SessionCap:      100,
		IdleExitTimeout: 5 * time.Minute,
	}
}

// Dir returns the daemon's configuration directory (~/.ptyd/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".ptyd")
	}
	return filepath.Join(home, ".ptyd")
}

// Load reads config.yaml from Dir(), falling back to Defaults() if the
// file is absent.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(Dir(), "config.yaml"))
}

// onDisk mirrors Config but with pointer fields, so an absent key in the
// file is distinguishable from an explicit zero value and Defaults()
// fields are only overwritten when the file actually sets them.
type onDisk struct {
	DefaultRows     *int    `yaml:"default_rows"`
	DefaultCols     *int    `yaml:"default_cols"`
	SessionCap      *int    `yaml:"session_cap"`
	IdleExitTimeout *string `yaml:"idle_exit_timeout"`
}

// LoadFrom reads the config at path, overlaying it onto Defaults(). A
// missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var onDiskCfg onDisk
	if err := yaml.Unmarshal(data, &onDiskCfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if onDiskCfg.DefaultRows != nil {
		cfg.DefaultRows = *onDiskCfg.DefaultRows
	}
	if onDiskCfg.DefaultCols != nil {
		cfg.DefaultCols = *onDiskCfg.DefaultCols
	}
	if onDiskCfg.SessionCap != nil {
		cfg.SessionCap = *onDiskCfg.SessionCap
	}
	if onDiskCfg.IdleExitTimeout != nil {
		d, err := time.ParseDuration(*onDiskCfg.IdleExitTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parse %s: idle_exit_timeout: %w", path, err)
		}
		cfg.IdleExitTimeout = d
	}
	return cfg, nil
}
