package cmd

import (
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"

	"ptyd/internal/pathresolve"
	"ptyd/internal/protocol"
)

// daemonInstanceName returns the sanitized name of the daemon instance this
// CLI invocation talks to, from PTYD_SESSION (§4.1), defaulting to "default".
func daemonInstanceName() string {
	return pathresolve.SanitizeName(os.Getenv(pathresolve.EnvSession))
}

// dialDaemon connects to the resolved daemon instance's socket.
func dialDaemon() (net.Conn, error) {
	dir, err := pathresolve.Dir()
	if err != nil {
		return nil, fmt.Errorf("resolve socket dir: %w", err)
	}
	sockPath := pathresolve.SocketPath(dir, daemonInstanceName())
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s (is it running? try `ptyd daemon`): %w", sockPath, err)
	}
	return conn, nil
}

// roundTrip sends cmd over a fresh connection and returns the response.
func roundTrip(cmdReq protocol.Command) (*protocol.Response, error) {
	conn, err := dialDaemon()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := &protocol.Request{ID: uuid.NewString(), Command: cmdReq}
	if err := protocol.SendRequest(conn, req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// mustSucceed converts a failed response into a Go error, otherwise
// returns its data payload raw so callers can re-marshal/print it.
func mustSucceed(resp *protocol.Response) (any, error) {
	if !resp.Success {
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
		}
		return nil, fmt.Errorf("request failed")
	}
	return resp.Data, nil
}
