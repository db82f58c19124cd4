package daemonserver

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	"ptyd/internal/pathresolve"
)

// bindResult carries everything the caller needs after a successful
// bind-and-claim sequence.
type bindResult struct {
	listener *net.UnixListener
	lockFile *flock.Flock
}

// bindSocket implements the bind-first acquisition sequence from §9: bind
// first, and only on EADDRINUSE consult the PID file. A flock on a
// sibling ".lock" file serializes the stale-socket recovery dance between
// two daemons racing to claim the same path, which the bind syscall alone
// cannot do since an orphaned socket file present before either daemon
// starts isn't itself a mutex.
func bindSocket(socketPath, pidPath string) (*bindResult, error) {
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err == nil {
		if err := writePIDFile(pidPath); err != nil {
			ln.Close()
			return nil, fmt.Errorf("write pid file: %w", err)
		}
		return &bindResult{listener: ln}, nil
	}
	if !isAddrInUse(err) {
		return nil, fmt.Errorf("bind %s: %w", socketPath, err)
	}

	lock := flock.New(socketPath + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", socketPath, err)
	}
	defer func() {
		if lock.Locked() {
			lock.Unlock()
		}
	}()

	if pid, alive := readAlivePID(pidPath); alive {
		return nil, fmt.Errorf("socket %s is in use by live daemon (pid %d)", socketPath, pid)
	}

	if err := unlinkStaleSocket(socketPath); err != nil {
		return nil, err
	}

	ln, err = net.ListenUnix("unix", &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("bind %s after clearing stale socket: %w", socketPath, err)
	}
	if err := writePIDFile(pidPath); err != nil {
		ln.Close()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &bindResult{listener: ln}, nil
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE) || strings.Contains(err.Error(), "address already in use")
}

// readAlivePID reads the PID file and signal-0 probes it. Returns
// alive=false for a missing file, an unparsable file, or a dead process.
func readAlivePID(pidPath string) (pid int, alive bool) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, false
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, pathresolve.ProcessAlive(pid)
}

// unlinkStaleSocket removes path only after verifying it is actually a
// Unix domain socket, never a symlink or regular file (§9).
func unlinkStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("refusing to remove %s: not a socket (mode %s)", path, info.Mode())
	}
	return os.Remove(path)
}

// writePIDFile writes the current PID atomically via rename, so a reader
// never observes a partially written file.
func writePIDFile(pidPath string) error {
	tmp := pidPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, pidPath)
}

// unbindSocket removes the socket and PID files, run on graceful shutdown
// (§4.6, §9).
func unbindSocket(socketPath, pidPath string) {
	os.Remove(socketPath)
	os.Remove(pidPath)
	os.Remove(socketPath + ".lock")
}
