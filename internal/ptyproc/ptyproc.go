// Package ptyproc owns the PTY master/child-process lifecycle for a single
// session (§4.3): spawning the child, bridging its blocking I/O onto bounded
// channels a session goroutine can select on, resizing, and shutdown.
package ptyproc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// queueCapacity bounds both the input and output channels so a stalled
// reader or a wedged child can never grow the daemon's memory footprint
// without limit (§4.3).
const queueCapacity = 64

// readChunk is the buffer size for each blocking read off the PTY master.
const readChunk = 4096

// ErrClosed is returned by Write once the handle has started shutting down.
var ErrClosed = errors.New("ptyproc: handle closed")

// Size is a terminal size in character cells.
type Size struct {
	Rows int
	Cols int
}

// Handle bridges a PTY master and its child process to the async world via
// two bounded channels, mirroring the reader-thread/writer-thread split of
// the teacher's blocking I/O design.
type Handle struct {
	ptm *os.File
	cmd *exec.Cmd

	input  chan []byte
	output chan []byte

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	closeOutOnce sync.Once

	exited    atomic.Bool
	exitErr   atomic.Value // error
	waitDone  chan struct{}

	size atomic.Value // Size

	oscMu  sync.Mutex
	oscFG  string
	oscBG  string
}

// Spawn creates a master PTY at the given size and starts argv as the
// slave's controlling process, then launches the reader and writer
// goroutines. cwd may be empty to inherit the daemon's working directory.
func Spawn(argv []string, size Size, cwd string) (*Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("spawn: empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}

	h := &Handle{
		ptm:        ptm,
		cmd:        cmd,
		input:      make(chan []byte, queueCapacity),
		output:     make(chan []byte, queueCapacity),
		shutdownCh: make(chan struct{}),
		waitDone:   make(chan struct{}),
	}
	h.size.Store(size)

	go h.waitLoop()
	go h.readerLoop()
	go h.writerLoop()

	return h, nil
}

// waitLoop reaps the child exactly once and records its exit status, so
// HasExited never needs to call cmd.Wait itself (which panics on reuse).
func (h *Handle) waitLoop() {
	err := h.cmd.Wait()
	h.exitErr.Store(waitErr{err})
	h.exited.Store(true)
	close(h.waitDone)
}

// waitErr boxes a possibly-nil error so atomic.Value can hold it (a bare
// nil error has no concrete type and atomic.Value rejects inconsistent
// concrete types across Store calls).
type waitErr struct{ err error }

// readerLoop pumps PTY output into the bounded output queue until EOF,
// shutdown, or an unrecoverable read error, then closes the output queue.
func (h *Handle) readerLoop() {
	defer h.closeOutput()
	buf := make([]byte, readChunk)
	for {
		n, err := h.ptm.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			h.respondOSC(chunk)
			select {
			case h.output <- chunk:
			case <-h.shutdownCh:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// writerLoop pulls queued writes and flushes them to the PTY master,
// retrying on EAGAIN with a short sleep per §4.3's WouldBlock handling.
func (h *Handle) writerLoop() {
	for {
		select {
		case p, ok := <-h.input:
			if !ok {
				return
			}
			if err := h.writeAll(p); err != nil {
				return
			}
		case <-h.shutdownCh:
			return
		}
	}
}

func (h *Handle) writeAll(p []byte) error {
	for len(p) > 0 {
		n, err := h.ptm.Write(p)
		if n > 0 {
			p = p[n:]
		}
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}
	}
	return nil
}

// Write enqueues bytes for delivery to the child's stdin. It blocks only
// as long as the 64-slot input queue is full, never indefinitely, since the
// writer goroutine is always draining it (or the handle is shutting down).
func (h *Handle) Write(p []byte) error {
	select {
	case <-h.shutdownCh:
		return ErrClosed
	default:
	}
	select {
	case h.input <- p:
		return nil
	case <-h.shutdownCh:
		return ErrClosed
	}
}

// Read blocks for the next chunk of child output. ok is false once the
// queue has been closed (child exited or handle shut down) and drained.
func (h *Handle) Read() (chunk []byte, ok bool) {
	chunk, ok = <-h.output
	return chunk, ok
}

// Resize delivers SIGWINCH to the child via the PTY master and records the
// new tracked size.
func (h *Handle) Resize(size Size) error {
	h.size.Store(size)
	return pty.Setsize(h.ptm, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
}

// Size returns the last size set at spawn or resize time.
func (h *Handle) Size() Size {
	return h.size.Load().(Size)
}

// HasExited is a non-blocking poll of the child's liveness.
func (h *Handle) HasExited() bool {
	return h.exited.Load()
}

// ExitErr returns the error cmd.Wait completed with, if the child has
// exited. Returns nil if the child is still running or exited cleanly.
func (h *Handle) ExitErr() error {
	if v, ok := h.exitErr.Load().(waitErr); ok {
		return v.err
	}
	return nil
}

// SetOSCPalette configures the foreground/background colors this handle
// answers OSC 10/11 queries with (§4.8 supplemented feature). Colors use
// the X11 "rgb:RRRR/GGGG/BBBB" encoding real terminals reply with.
func (h *Handle) SetOSCPalette(fg, bg string) {
	h.oscMu.Lock()
	defer h.oscMu.Unlock()
	h.oscFG, h.oscBG = fg, bg
}

// respondOSC answers OSC 10 (foreground) / OSC 11 (background) color
// queries directly on the PTY master, the way a real terminal emulator
// would, so TUIs that probe the palette before drawing don't hang.
func (h *Handle) respondOSC(data []byte) {
	h.oscMu.Lock()
	fg, bg := h.oscFG, h.oscBG
	h.oscMu.Unlock()
	if fg == "" && bg == "" {
		return
	}
	s := string(data)
	if fg != "" && strings.Contains(s, "\033]10;?") {
		fmt.Fprintf(h.ptm, "\033]10;%s\033\\", fg)
	}
	if bg != "" && strings.Contains(s, "\033]11;?") {
		fmt.Fprintf(h.ptm, "\033]11;%s\033\\", bg)
	}
}

// Shutdown best-effort kills the child, lets the already-running wait
// goroutine reap it asynchronously, and signals both I/O goroutines to
// stop. Idempotent and safe to call more than once or concurrently.
func (h *Handle) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdownCh)
		if h.cmd.Process != nil {
			h.cmd.Process.Kill()
		}
		h.ptm.Close()
	})
}

// closeOutput closes the output queue exactly once, called when the reader
// goroutine exits for any reason.
func (h *Handle) closeOutput() {
	h.closeOutOnce.Do(func() {
		close(h.output)
	})
}
