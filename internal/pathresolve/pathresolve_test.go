package pathresolve

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirPrefersExplicitOverride(t *testing.T) {
	tmp := t.TempDir()
	override := filepath.Join(tmp, "sockets")
	t.Setenv(EnvSocketDir, override)
	t.Setenv(EnvXDGRuntimeDir, filepath.Join(tmp, "xdg"))

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if dir != override {
		t.Fatalf("want %q, got %q", override, dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("want mode 0700, got %o", info.Mode().Perm())
	}
}

func TestDirTreatsEmptyOverrideAsUnset(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(EnvSocketDir, "")
	xdg := filepath.Join(tmp, "xdg")
	t.Setenv(EnvXDGRuntimeDir, xdg)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	want := filepath.Join(xdg, appSubdir)
	if dir != want {
		t.Fatalf("want %q, got %q", want, dir)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"default", "default"},
		{"", "default"},
		{"my-session_1", "my-session_1"},
		{"-leading-dash", "default"},
		{"has/slash", "default"},
		{"../traverse", "default"},
		{"has space", "default"},
		{"emoji🎉", "default"},
	}
	for _, c := range cases {
		if got := SanitizeName(c.in); got != c.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSocketAndPIDPath(t *testing.T) {
	dir := "/tmp/ptyd"
	if got, want := SocketPath(dir, "t1"), "/tmp/ptyd/t1.sock"; got != want {
		t.Errorf("SocketPath = %q, want %q", got, want)
	}
	if got, want := PIDPath(dir, "t1"), "/tmp/ptyd/t1.pid"; got != want {
		t.Errorf("PIDPath = %q, want %q", got, want)
	}
}

func TestProcessAliveSelf(t *testing.T) {
	if !ProcessAlive(os.Getpid()) {
		t.Fatal("expected current process to be alive")
	}
}
