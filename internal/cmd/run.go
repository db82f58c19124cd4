package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ptyd/internal/protocol"
)

// pollInterval is how often `run` re-snapshots the session it mirrors.
const pollInterval = 50 * time.Millisecond

// newRunCmd is a dev convenience command: spawn a command and mirror its
// screen onto this terminal interactively, relaying local keystrokes in
// and redrawing the remote screen out. It is not part of the protocol
// surface, just a thin loop built on top of it.
func newRunCmd() *cobra.Command {
	var commandLine string
	var name string

	cmd := &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Spawn a command and interactively mirror it on this terminal (dev convenience)",
		RunE: func(cmd *cobra.Command, args []string) error {
			argv := args
			if commandLine != "" {
				split, err := shlex.Split(commandLine)
				if err != nil {
					return fmt.Errorf("parse --command: %w", err)
				}
				argv = split
			}
			if len(argv) == 0 {
				return fmt.Errorf("no command given; pass argv or --command")
			}
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("run requires an interactive terminal on stdin")
			}

			rows, cols := termSize()
			hints := detectTerminalHints()
			resp, err := roundTrip(protocol.Command{
				Action:      protocol.ActionSpawn,
				Command:     argv,
				SessionName: name,
				OSCFg:       hints.OscFg,
				OSCBg:       hints.OscBg,
			})
			if err != nil {
				return err
			}
			created, err := decodeSessionCreated(resp)
			if err != nil {
				return err
			}

			if _, err := roundTrip(protocol.Command{Action: protocol.ActionResize, Session: created.SessionID, Rows: rows, Cols: cols}); err != nil {
				return err
			}

			return mirror(created.SessionID)
		},
	}

	cmd.Flags().StringVar(&commandLine, "command", "", "shell-style command line, split with shlex")
	cmd.Flags().StringVar(&name, "name", "", "session name")
	return cmd
}

func decodeSessionCreated(resp *protocol.Response) (*protocol.SessionCreated, error) {
	data, err := mustSucceed(resp)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var created protocol.SessionCreated
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func termSize() (rows, cols uint16) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 24, 80
	}
	return uint16(h), uint16(w)
}

// mirror puts stdin into raw mode, relays it to session as typed input, and
// redraws the session's screen onto stdout on every poll tick until the
// session exits or ^\ (FS, 0x1c) is read locally.
func mirror(session string) error {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go relayStdin(session, done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			if err := redrawOnce(session); err != nil {
				return err
			}
		}
	}
}

func relayStdin(session string, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if containsByte(buf[:n], 0x1c) {
				return
			}
			if _, rtErr := roundTrip(protocol.Command{
				Action:  protocol.ActionType,
				Text:    encodeRawBytes(buf[:n]),
				Session: session,
			}); rtErr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				return
			}
			return
		}
	}
}

func containsByte(b []byte, v byte) bool {
	for _, c := range b {
		if c == v {
			return true
		}
	}
	return false
}

// encodeRawBytes escapes raw bytes as \xNN sequences for the type command,
// so any byte the local terminal produced (including control bytes) round
// trips exactly through type's escape decoder.
func encodeRawBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, "\\x%02x", c)
	}
	return sb.String()
}

func redrawOnce(session string) error {
	resp, err := roundTrip(protocol.Command{Action: protocol.ActionSnapshot, Session: session, Format: protocol.FormatCompact})
	if err != nil {
		return err
	}
	data, err := mustSucceed(resp)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var screen protocol.ScreenState
	if err := json.Unmarshal(raw, &screen); err != nil {
		return err
	}
	if screen.Text == nil {
		return nil
	}
	fmt.Print("\x1b[H\x1b[2J")
	fmt.Print(strings.ReplaceAll(*screen.Text, "\n", "\r\n"))
	fmt.Printf("\x1b[%d;%dH", screen.Cursor.Row+1, screen.Cursor.Col+1)
	return nil
}
