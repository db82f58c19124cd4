// Package pathresolve computes the socket and PID-file paths the daemon
// binds to, and sanitizes session names before they ever touch the
// filesystem (§4.1).
package pathresolve

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"syscall"
)

const (
	// EnvSocketDir is the explicit override for the socket directory.
	EnvSocketDir = "PTYD_SOCKET_DIR"
	// EnvSession is the per-invocation session name.
	EnvSession = "PTYD_SESSION"
	// EnvXDGRuntimeDir is the standard XDG fallback.
	EnvXDGRuntimeDir = "XDG_RUNTIME_DIR"

	appSubdir     = "ptyd"
	dotDirName    = ".ptyd"
	defaultName   = "default"
)

// Dir resolves the socket directory in priority order: explicit override,
// XDG runtime dir, home dot-dir, system temp dir. The directory is created
// if absent and forced to 0700 where POSIX permissions apply.
func Dir() (string, error) {
	dir := firstNonEmpty(
		os.Getenv(EnvSocketDir),
		xdgRuntimeSubdir(),
		homeDotSubdir(),
		filepath.Join(os.TempDir(), appSubdir),
	)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(dir, 0o700); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func xdgRuntimeSubdir() string {
	base := os.Getenv(EnvXDGRuntimeDir)
	if base == "" {
		return ""
	}
	return filepath.Join(base, appSubdir)
}

func homeDotSubdir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, dotDirName)
}

// firstNonEmpty returns the first non-empty string; empty-string env vars
// are treated as unset per §4.1.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

var validNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SanitizeName validates a session name: non-empty, ASCII alphanumeric plus
// hyphen/underscore, must not start with '-'. Invalid names are replaced
// with "default" and a warning is logged; this is what keeps session names
// (which become filenames) from escaping the socket directory.
func SanitizeName(name string) string {
	if name == "" {
		return defaultName
	}
	if strings.HasPrefix(name, "-") || !validNameRe.MatchString(name) {
		log.Printf("ptyd: invalid session name %q, using %q", name, defaultName)
		return defaultName
	}
	return name
}

// DefaultName is the name assigned when no session name is given.
const DefaultName = defaultName

// SocketPath returns the socket path for a (sanitized) session name.
func SocketPath(dir, session string) string {
	return filepath.Join(dir, session+".sock")
}

// PIDPath returns the PID-file path for a (sanitized) session name.
func PIDPath(dir, session string) string {
	return filepath.Join(dir, session+".pid")
}

// ProcessAlive reports whether pid refers to a live process, using a
// signal-0 probe (§4.6).
func ProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
