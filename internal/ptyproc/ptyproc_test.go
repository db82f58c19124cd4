package ptyproc

import (
	"strings"
	"testing"
	"time"
)

func TestSpawnEchoRoundTrip(t *testing.T) {
	h, err := Spawn([]string{"/bin/cat"}, Size{Rows: 24, Cols: 80}, "")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer h.Shutdown()

	if err := h.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	var seen strings.Builder
	for {
		select {
		case chunk, ok := <-receiveWithTimeout(h, time.Second):
			if !ok {
				t.Fatal("output queue closed before echo observed")
			}
			seen.Write(chunk)
			if strings.Contains(seen.String(), "hello") {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for echo, saw %q", seen.String())
		}
	}
}

// receiveWithTimeout adapts Handle.Read (a blocking call) into something
// selectable alongside a deadline channel.
func receiveWithTimeout(h *Handle, timeout time.Duration) <-chan []byte {
	ch := make(chan []byte, 1)
	go func() {
		chunk, ok := h.Read()
		if ok {
			ch <- chunk
		}
		close(ch)
	}()
	return ch
}

func TestSpawnEmptyArgvFails(t *testing.T) {
	if _, err := Spawn(nil, Size{Rows: 24, Cols: 80}, ""); err == nil {
		t.Fatal("want error for empty argv")
	}
}

func TestResizeUpdatesSize(t *testing.T) {
	h, err := Spawn([]string{"/bin/cat"}, Size{Rows: 24, Cols: 80}, "")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer h.Shutdown()

	if err := h.Resize(Size{Rows: 40, Cols: 120}); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := h.Size(); got.Rows != 40 || got.Cols != 120 {
		t.Fatalf("want (40,120), got %+v", got)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	h, err := Spawn([]string{"/bin/cat"}, Size{Rows: 24, Cols: 80}, "")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	h.Shutdown()
	h.Shutdown()
}

func TestWriteAfterShutdownReturnsErrClosed(t *testing.T) {
	h, err := Spawn([]string{"/bin/cat"}, Size{Rows: 24, Cols: 80}, "")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	h.Shutdown()
	// Give the writer goroutine a moment to observe shutdownCh.
	time.Sleep(50 * time.Millisecond)
	if err := h.Write([]byte("x")); err != ErrClosed {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestHasExitedEventuallyAfterShutdown(t *testing.T) {
	h, err := Spawn([]string{"/bin/cat"}, Size{Rows: 24, Cols: 80}, "")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	h.Shutdown()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.HasExited() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("want child to have exited after shutdown")
}
