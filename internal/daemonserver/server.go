// Package daemonserver implements the daemon's Unix socket listener: bind
// acquisition, the connection-accepting semaphore, per-connection request
// framing and dispatch, and the idle-exit monitor (§4.6, §4.7).
package daemonserver

import (
	"bufio"
	"encoding/json"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ptyd/internal/config"
	"ptyd/internal/protocol"
	"ptyd/internal/sessionmgr"
)

// maxConnections is the accept-loop semaphore size (§4.6, §5).
const maxConnections = 100

// maxFrameBytes bounds a single request line.
const maxFrameBytes = 1 << 20

// shutdownDrainCap bounds how long graceful shutdown waits for in-flight
// connections before abandoning them.
const shutdownDrainCap = 5 * time.Second

// idlePollInterval is the idle-exit monitor's poll cadence; idleThreshold
// is the idle-exit timeout used when the config leaves it non-positive.
const (
	idlePollInterval = 30 * time.Second
	idleThreshold    = 5 * time.Minute
)

// Server owns the bound socket, the session table, and the lifecycle
// machinery (accept loop, idle monitor, graceful shutdown).
type Server struct {
	cfg      config.Config
	sessions *sessionmgr.Manager

	socketPath string
	pidPath    string
	bound      *bindResult

	sem chan struct{}
	wg  sync.WaitGroup

	shutdownOnce sync.Once
	shutdownCh   chan struct{}

	idleSince   time.Time
	idleSinceMu sync.Mutex
}

// New binds the socket and constructs a Server ready to Run.
func New(cfg config.Config, socketPath, pidPath string) (*Server, error) {
	bound, err := bindSocket(socketPath, pidPath)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:        cfg,
		sessions:   sessionmgr.New(),
		socketPath: socketPath,
		pidPath:    pidPath,
		bound:      bound,
		sem:        make(chan struct{}, maxConnections),
		shutdownCh: make(chan struct{}),
	}, nil
}

// Run drives the accept loop until shutdown is triggered by a client
// request, a signal, or the idle monitor, then drains in-flight
// connections and unbinds the socket.
func (s *Server) Run() error {
	sigCh := make(chan os.Signal, 2)
	registerShutdownSignals(sigCh)

	go s.idleMonitor()
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("daemonserver: received signal %s, shutting down", sig)
			s.triggerShutdown()
		case <-s.shutdownCh:
		}
	}()

	go func() {
		<-s.shutdownCh
		s.bound.listener.Close()
	}()

	for {
		conn, err := s.bound.listener.AcceptUnix()
		if err != nil {
			select {
			case <-s.shutdownCh:
				s.drain()
				unbindSocket(s.socketPath, s.pidPath)
				s.sessions.Stop()
				return nil
			default:
				log.Printf("daemonserver: accept failed: %v", err)
				return err
			}
		}

		select {
		case s.sem <- struct{}{}:
			s.wg.Add(1)
			go s.handleConn(conn)
		default:
			conn.Close()
		}
	}
}

func (s *Server) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownDrainCap):
		log.Printf("daemonserver: shutdown drain cap reached, abandoning in-flight connections")
	}
}

// triggerShutdown closes shutdownCh exactly once, signaling the accept
// loop and idle monitor to stop.
func (s *Server) triggerShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

func (s *Server) handleConn(conn *net.UnixConn) {
	defer s.wg.Done()
	defer func() { <-s.sem }()
	defer conn.Close()
	s.markActive()

	reader := bufio.NewReaderSize(conn, 4096)
	for {
		line, err := protocol.ReadFrame(reader, maxFrameBytes)
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue
		}
		s.markActive()

		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, protocol.Unknown("malformed request: "+err.Error()))
			continue
		}

		data, err := s.dispatch(&req.Command)
		var resp *protocol.Response
		if err != nil {
			resp = protocol.Fail(req.ID, err)
		} else {
			resp = protocol.OK(req.ID, data)
		}
		if !s.writeResponse(conn, resp) {
			return
		}
	}
}

func (s *Server) writeResponse(conn *net.UnixConn, resp *protocol.Response) bool {
	line, err := protocol.Marshal(resp)
	if err != nil {
		log.Printf("daemonserver: marshal response: %v", err)
		return false
	}
	if _, err := conn.Write(line); err != nil {
		return false
	}
	return true
}

// markActive resets the idle-monitor's timer, called whenever a connection
// is accepted or a request is read.
func (s *Server) markActive() {
	s.idleSinceMu.Lock()
	s.idleSince = time.Time{}
	s.idleSinceMu.Unlock()
}

// idleMonitor implements §4.6's idle-exit task: every 30s, checks whether
// no sessions are live and no connection is in flight; if that condition
// has held continuously for the configured idle-exit timeout (5 minutes by
// default), it triggers shutdown. A re-check
// immediately before signalling closes the race where activity arrives
// between the poll and the decision.
func (s *Server) idleMonitor() {
	threshold := s.cfg.IdleExitTimeout
	if threshold <= 0 {
		threshold = idleThreshold
	}
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !s.isIdle() {
				s.idleSinceMu.Lock()
				s.idleSince = time.Time{}
				s.idleSinceMu.Unlock()
				continue
			}
			s.idleSinceMu.Lock()
			if s.idleSince.IsZero() {
				s.idleSince = time.Now()
			}
			since := s.idleSince
			s.idleSinceMu.Unlock()
			if time.Since(since) >= threshold && s.isIdle() {
				log.Printf("daemonserver: idle threshold reached, shutting down")
				s.triggerShutdown()
				return
			}
		case <-s.shutdownCh:
			return
		}
	}
}

func (s *Server) isIdle() bool {
	return len(s.sessions.List()) == 0 && len(s.sem) == 0
}

// registerShutdownSignals wires SIGINT always, and SIGTERM unless the
// platform refuses to let us register it, matching §4.8's "never aborts
// startup over a SIGTERM registration failure" rule. signal.Notify itself
// cannot fail on Unix, but the call is isolated here so the failure mode
// is visible and auditable rather than inlined into Run.
func registerShutdownSignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
