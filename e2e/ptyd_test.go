// Package e2e drives the daemon end-to-end over its real Unix socket,
// covering the concrete scenarios enumerated in the daemon's testable
// properties.
package e2e

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"ptyd/internal/config"
	"ptyd/internal/daemonserver"
	"ptyd/internal/protocol"
)

func startDaemon(t *testing.T) (socketPath string, stop func()) {
	t.Helper()
	dir := t.TempDir()
	socketPath = filepath.Join(dir, "test.sock")
	pidPath := filepath.Join(dir, "test.pid")

	srv, err := daemonserver.New(config.Defaults(), socketPath, pidPath)
	if err != nil {
		t.Fatalf("daemonserver.New: %v", err)
	}
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		srv.Run()
	}()
	t.Cleanup(func() {
		conn, err := net.DialTimeout("unix", socketPath, time.Second)
		if err == nil {
			sendRequest(t, conn, protocol.Command{Action: protocol.ActionShutdown})
			conn.Close()
		}
		select {
		case <-runDone:
		case <-time.After(2 * time.Second):
		}
	})
	return socketPath, func() {}
}

func sendRequest(t *testing.T, conn net.Conn, cmd protocol.Command) *protocol.Response {
	t.Helper()
	req := &protocol.Request{ID: uuid.NewString(), Command: cmd}
	if err := protocol.SendRequest(conn, req); err != nil {
		t.Fatalf("send request: %v", err)
	}
	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp
}

func dial(t *testing.T, socketPath string) net.Conn {
	t.Helper()
	var lastErr error
	for i := 0; i < 50; i++ {
		conn, err := net.DialTimeout("unix", socketPath, time.Second)
		if err == nil {
			return conn
		}
		lastErr = err
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", socketPath, lastErr)
	return nil
}

func decodeInto(t *testing.T, resp *protocol.Response, v any) {
	t.Helper()
	if !resp.Success {
		t.Fatalf("request failed: %+v", resp.Error)
	}
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatal(err)
	}
}

func TestEchoRoundTrip(t *testing.T) {
	sockPath, _ := startDaemon(t)
	conn := dial(t, sockPath)
	defer conn.Close()

	resp := sendRequest(t, conn, protocol.Command{
		Action:      protocol.ActionSpawn,
		Command:     []string{"echo", "hello from test"},
		SessionName: "t1",
	})
	var created protocol.SessionCreated
	decodeInto(t, resp, &created)

	time.Sleep(200 * time.Millisecond)

	resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionSnapshot, Session: "t1", Format: protocol.FormatText})
	var snap protocol.SnapshotPayload
	decodeInto(t, resp, &snap)
	if !contains(snap.Content, "hello from test") {
		t.Fatalf("snapshot content missing expected text: %q", snap.Content)
	}
	if !contains(snap.Content, "Terminal 80x24") {
		t.Fatalf("snapshot content missing terminal header: %q", snap.Content)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionListSessions})
		var sessions protocol.Sessions
		decodeInto(t, resp, &sessions)
		if !anySessionNamed(sessions, "t1") {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("session t1 did not disappear from list_sessions within 1s")
}

func TestUIPatternDetection(t *testing.T) {
	sockPath, _ := startDaemon(t)
	conn := dial(t, sockPath)
	defer conn.Close()

	resp := sendRequest(t, conn, protocol.Command{
		Action:      protocol.ActionSpawn,
		Command:     []string{"printf", "[ OK ]  [ Cancel ]\\n[x] Option A\\n[ ] Option B\\n"},
		SessionName: "t2",
	})
	var created protocol.SessionCreated
	decodeInto(t, resp, &created)

	time.Sleep(200 * time.Millisecond)

	resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionSnapshot, Session: "t2", Format: protocol.FormatFull})
	var screen protocol.ScreenState
	decodeInto(t, resp, &screen)

	var buttons, checkedToggles, uncheckedToggles int
	for _, el := range screen.Elements {
		if el.Text == "" {
			t.Fatalf("element has empty text: %+v", el)
		}
		if int(el.Row) >= int(screen.Size.Rows) || int(el.Col) >= int(screen.Size.Cols) {
			t.Fatalf("element out of bounds: %+v", el)
		}
		switch el.Kind {
		case "button":
			buttons++
		case "toggle":
			if el.Checked != nil && *el.Checked {
				checkedToggles++
			} else if el.Checked != nil && !*el.Checked {
				uncheckedToggles++
			}
		}
	}
	if buttons < 2 {
		t.Fatalf("want at least 2 buttons, got %d (%+v)", buttons, screen.Elements)
	}
	if checkedToggles < 1 || uncheckedToggles < 1 {
		t.Fatalf("want at least one checked and one unchecked toggle, got checked=%d unchecked=%d", checkedToggles, uncheckedToggles)
	}
}

func TestTypeAndReadBack(t *testing.T) {
	sockPath, _ := startDaemon(t)
	conn := dial(t, sockPath)
	defer conn.Close()

	resp := sendRequest(t, conn, protocol.Command{Action: protocol.ActionSpawn, Command: []string{"cat"}, SessionName: "t3"})
	var created protocol.SessionCreated
	decodeInto(t, resp, &created)

	resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionType, Text: "Hello World", Session: "t3"})
	if !resp.Success {
		t.Fatalf("type failed: %+v", resp.Error)
	}
	time.Sleep(200 * time.Millisecond)

	resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionSnapshot, Session: "t3", Format: protocol.FormatText})
	var snap protocol.SnapshotPayload
	decodeInto(t, resp, &snap)
	if !contains(snap.Content, "Hello World") {
		t.Fatalf("snapshot content missing typed text: %q", snap.Content)
	}

	resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionKey, Key: "Ctrl+C", Session: "t3"})
	if !resp.Success {
		t.Fatalf("key failed: %+v", resp.Error)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionListSessions})
		var sessions protocol.Sessions
		decodeInto(t, resp, &sessions)
		if !anySessionNamed(sessions, "t3") {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("session t3 did not exit within 1s of Ctrl+C")
}

func TestWaitForRegex(t *testing.T) {
	sockPath, _ := startDaemon(t)
	conn := dial(t, sockPath)
	defer conn.Close()

	resp := sendRequest(t, conn, protocol.Command{
		Action:      protocol.ActionSpawn,
		Command:     []string{"echo", "version 1.2.3 ready"},
		SessionName: "t4",
	})
	var created protocol.SessionCreated
	decodeInto(t, resp, &created)

	resp = sendRequest(t, conn, protocol.Command{
		Action:    protocol.ActionWaitFor,
		Pattern:   `version \d+\.\d+\.\d+`,
		Regex:     true,
		TimeoutMs: 5000,
		Session:   "t4",
	})
	var result protocol.WaitForResult
	decodeInto(t, resp, &result)
	if !result.Found {
		t.Fatal("expected found=true")
	}
	if result.MatchedText != "version 1.2.3" {
		t.Fatalf("matched_text = %q, want %q", result.MatchedText, "version 1.2.3")
	}
	if result.ElapsedMs >= 5000 {
		t.Fatalf("elapsed_ms = %d, want < 5000", result.ElapsedMs)
	}
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	sockPath, _ := startDaemon(t)
	conn := dial(t, sockPath)
	defer conn.Close()

	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatal(err)
	}
	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.ID != "unknown" || resp.Success {
		t.Fatalf("want unknown/failed response, got %+v", resp)
	}

	resp = sendRequest(t, conn, protocol.Command{Action: protocol.ActionListSessions})
	if !resp.Success {
		t.Fatalf("connection should still be usable after malformed frame: %+v", resp)
	}
}

func TestBindConflictRefusesRegularFile(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "conflict.sock")
	pidPath := filepath.Join(dir, "conflict.pid")

	if err := os.WriteFile(sockPath, []byte("not a socket"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := daemonserver.New(config.Defaults(), sockPath, pidPath); err == nil {
		t.Fatal("expected bind to fail against a regular file at the socket path")
	}
	if _, err := os.Stat(sockPath); err != nil {
		t.Fatalf("regular file should not have been removed: %v", err)
	}
}

func contains(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func anySessionNamed(sessions protocol.Sessions, name string) bool {
	for _, s := range sessions.Sessions {
		if s.Name == name {
			return true
		}
	}
	return false
}
