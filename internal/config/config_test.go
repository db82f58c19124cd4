package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("want defaults, got %+v", cfg)
	}
}

func TestLoadFromOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "default_cols: 120\nidle_exit_timeout: 2m\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	want := Defaults()
	want.DefaultCols = 120
	want.IdleExitTimeout = 2 * time.Minute
	if cfg != want {
		t.Fatalf("want %+v, got %+v", want, cfg)
	}
}

func TestLoadFromRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "idle_exit_timeout: not-a-duration\n")

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("want error for invalid idle_exit_timeout")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
