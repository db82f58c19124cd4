// Package sessionmgr owns the live session table: creation with
// cap/name-uniqueness enforcement, lookup, teardown, and the background
// reaper that keeps the table in sync with reality (§4.4).
package sessionmgr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ptyd/internal/protocol"
	"ptyd/internal/ptyproc"
	"ptyd/internal/termemu"
)

// MaxSessions is the live-session cap (§4.4, §8).
const MaxSessions = 100

// cleanerInterval is how often the background reaper polls for exited
// children.
const cleanerInterval = 500 * time.Millisecond

// drainTimeout, drainMaxReads and drainMaxBytes bound how long and how much
// a snapshot will drain from a session's PTY output queue (§4.4).
const (
	drainTimeout  = 10 * time.Millisecond
	drainMaxReads = 100
	drainMaxBytes = 1 << 20
)

// Session is one live PTY-backed terminal, owned exclusively by the
// manager for its lifetime (§3).
type Session struct {
	ID        string
	Name      string
	Argv      []string
	CreatedAt time.Time

	pty *ptyproc.Handle
	vt  *termemu.Emulator

	mu   sync.Mutex
	size ptyproc.Size
}

// Manager is the keyed session table (§4.4).
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	snapshotID atomic.Uint64

	stopCleaner chan struct{}
	cleanerDone chan struct{}
}

// New creates a manager and starts its background cleaner goroutine. Stop
// must be called on daemon shutdown to release it.
func New() *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		stopCleaner: make(chan struct{}),
		cleanerDone: make(chan struct{}),
	}
	go m.cleanerLoop()
	return m
}

// Stop halts the background cleaner. It does not kill live sessions; call
// KillAll first if a full shutdown is wanted.
func (m *Manager) Stop() {
	close(m.stopCleaner)
	<-m.cleanerDone
}

// cleanerLoop scans for sessions whose child has exited and removes them,
// every cleanerInterval, so list() stays accurate without a client asking
// (§4.4, §9).
func (m *Manager) cleanerLoop() {
	defer close(m.cleanerDone)
	ticker := time.NewTicker(cleanerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.reapExited()
		case <-m.stopCleaner:
			return
		}
	}
}

func (m *Manager) reapExited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.pty.HasExited() {
			s.pty.Shutdown()
			delete(m.sessions, id)
		}
	}
}

// CreateOpts configures a new session.
type CreateOpts struct {
	Argv  []string
	Name  string
	Size  ptyproc.Size
	Cwd   string
	OSCFg string
	OSCBg string
}

// Create spawns a new session. Name defaults to "default". The expensive
// PTY spawn happens outside the write lock; cap and name uniqueness are
// checked twice (optimistically under a read lock, then for real under the
// write lock) since another creator could race in between (§4.4).
func (m *Manager) Create(opts CreateOpts) (*Session, error) {
	name := opts.Name
	if name == "" {
		name = "default"
	}

	if err := m.precheck(name); err != nil {
		return nil, err
	}

	handle, err := ptyproc.Spawn(opts.Argv, opts.Size, opts.Cwd)
	if err != nil {
		return nil, protocol.Newf(protocol.CommandFailed, "spawn: %v", err)
	}
	oscFg, oscBg := opts.OSCFg, opts.OSCBg
	if oscFg == "" && oscBg == "" {
		oscFg, oscBg = ptyproc.DefaultOSCPalette()
	}
	handle.SetOSCPalette(oscFg, oscBg)

	vt := termemu.New(opts.Size.Rows, opts.Size.Cols)
	sess := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Argv:      opts.Argv,
		CreatedAt: time.Now(),
		pty:       handle,
		vt:        vt,
		size:      opts.Size,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkCapAndName(name); err != nil {
		handle.Shutdown()
		return nil, err
	}
	m.sessions[sess.ID] = sess
	return sess, nil
}

func (m *Manager) precheck(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkCapAndName(name)
}

func (m *Manager) checkCapAndName(name string) error {
	if len(m.sessions) >= MaxSessions {
		return protocol.Newf(protocol.CommandFailed, "session cap reached (%d live sessions)", MaxSessions)
	}
	for _, s := range m.sessions {
		if s.Name == name {
			return protocol.Newf(protocol.CommandFailed, "a session named %q already exists", name).
				WithSuggestion("choose a different session_name or kill the existing one")
		}
	}
	return nil
}

// Kill removes a session from the table and shuts down its PTY handle.
func (m *Manager) Kill(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return protocol.SessionNotFoundErr(id)
	}
	sess.pty.Shutdown()
	return nil
}

// KillAll tears down every live session, used on daemon shutdown.
func (m *Manager) KillAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.pty.Shutdown()
	}
}

// Info is the {id, name, argv, created_at} view returned by List.
type Info struct {
	ID        string
	Name      string
	Argv      []string
	CreatedAt time.Time
}

// List returns a snapshot of every live session's identity fields.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, Info{ID: s.ID, Name: s.Name, Argv: s.Argv, CreatedAt: s.CreatedAt})
	}
	return out
}

// Resolve looks up a session by optional identifier: empty resolves to the
// session named "default"; otherwise id is tried first, then name (§4.4).
func (m *Manager) Resolve(ident string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	target := ident
	if target == "" {
		target = "default"
		if s, ok := m.sessions[target]; ok {
			return s, nil
		}
		for _, s := range m.sessions {
			if s.Name == "default" {
				return s, nil
			}
		}
		return nil, protocol.SessionNotFoundErr("")
	}
	if s, ok := m.sessions[target]; ok {
		return s, nil
	}
	for _, s := range m.sessions {
		if s.Name == target {
			return s, nil
		}
	}
	return nil, protocol.SessionNotFoundErr(ident)
}

// Write forwards bytes to a session's PTY input.
func (m *Manager) Write(id string, p []byte) error {
	sess, err := m.Resolve(id)
	if err != nil {
		return err
	}
	return sess.pty.Write(p)
}

// Resize updates a session's tracked size and resizes both the PTY and the
// terminal emulator.
func (m *Manager) Resize(id string, size ptyproc.Size) error {
	sess, err := m.Resolve(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.pty.Resize(size); err != nil {
		return protocol.Newf(protocol.CommandFailed, "resize: %v", err)
	}
	sess.vt.Resize(size.Rows, size.Cols)
	sess.size = size
	return nil
}

// drain pulls queued PTY output into the session's emulator, bounded by
// drainMaxReads/drainMaxBytes/drainTimeout so a chatty child can't stall a
// snapshot (§4.4).
func (s *Session) drain() {
	total := 0
	for i := 0; i < drainMaxReads && total < drainMaxBytes; i++ {
		select {
		case chunk, ok := <-s.ptyOutput():
			if !ok {
				return
			}
			s.vt.Feed(chunk)
			total += len(chunk)
		case <-time.After(drainTimeout):
			return
		}
	}
}

// ptyOutput exposes the handle's output channel indirectly through Read so
// draining can select with a timeout instead of blocking forever on an
// idle child.
func (s *Session) ptyOutput() <-chan []byte {
	ch := make(chan []byte, 1)
	go func() {
		chunk, ok := s.pty.Read()
		if ok {
			ch <- chunk
		}
		close(ch)
	}()
	return ch
}

// SnapshotData is everything a `snapshot` request needs to build a
// response (§6).
type SnapshotData struct {
	SnapshotID  uint64
	Size        ptyproc.Size
	CursorRow   int
	CursorCol   int
	Visible     bool
	Lines       []string
	Elements    []protocol.Element
	ContentHash uint64
}

// Snapshot drains pending PTY output, then reads the resulting emulator
// state, optionally running element detection and computing a content
// hash (§4.4).
func (m *Manager) Snapshot(id string, wantElements bool, detect func(grid [][]termemu.Cell, cursorRow, cursorCol int) []protocol.Element, hash func(string) uint64) (*SnapshotData, error) {
	sess, err := m.Resolve(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.drain()

	row, col := sess.vt.Cursor()
	lines := sess.vt.GetText()
	rows, cols := sess.vt.Size()

	data := &SnapshotData{
		SnapshotID: m.snapshotID.Add(1),
		Size:       ptyproc.Size{Rows: rows, Cols: cols},
		CursorRow:  row,
		CursorCol:  col,
		Visible:    sess.vt.CursorVisible(),
		Lines:      lines,
	}
	if wantElements {
		data.Elements = detect(sess.vt.Grid(), row, col)
		data.ContentHash = hash(joinLines(lines))
	}
	return data, nil
}

func joinLines(lines []string) string {
	total := 0
	for _, l := range lines {
		total += len(l) + 1
	}
	buf := make([]byte, 0, total)
	for i, l := range lines {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, l...)
	}
	return string(buf)
}

// AppCursorMode drains pending output then reports whether the session's
// emulator is in application cursor mode (DECCKM), needed to pick the
// right arrow-key encoding (§4.4, §4.7).
func (m *Manager) AppCursorMode(id string) (bool, error) {
	sess, err := m.Resolve(id)
	if err != nil {
		return false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.drain()
	return sess.vt.ApplicationCursorMode(), nil
}

// WritePTY forwards bytes to a resolved session's PTY, exported for
// dispatch handlers that already hold a *Session (e.g. after Resolve).
func (s *Session) WritePTY(p []byte) error {
	return s.pty.Write(p)
}

// Emulator exposes the session's terminal emulator for read-only use by
// dispatch handlers (e.g. wait_for's polling loop).
func (s *Session) Emulator() *termemu.Emulator {
	return s.vt
}

// Drain exposes drain to dispatch handlers outside the manager (wait_for
// polls a session directly rather than going through Snapshot each tick).
func (s *Session) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()
}
