package daemonserver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ptyd/internal/element"
	"ptyd/internal/protocol"
	"ptyd/internal/ptyproc"
	"ptyd/internal/sessionmgr"
)

// snapshotPollInterval and waitForPollInterval are the fixed poll cadences
// for await_change and wait_for respectively (§4.7); settle_ms polls at its
// own requested interval.
const (
	snapshotPollInterval = 50 * time.Millisecond
	waitForPollInterval  = 100 * time.Millisecond
)

// maxScrollAmount rejects unreasonably large scroll requests outright
// rather than writing thousands of wheel events (§4.7).
const maxScrollAmount = 1000

// maxDelayMs clamps the key command's inter-sequence delay.
const maxDelayMs = 10000

// dispatch runs one command against mgr and returns the response data, or
// an error to be converted by protocol.Fail.
func (s *Server) dispatch(cmd *protocol.Command) (any, error) {
	switch cmd.Action {
	case protocol.ActionSpawn:
		return s.doSpawn(cmd)
	case protocol.ActionKill:
		return s.doKill(cmd)
	case protocol.ActionListSessions:
		return s.doListSessions()
	case protocol.ActionSnapshot:
		return s.doSnapshot(cmd)
	case protocol.ActionType:
		return s.doType(cmd)
	case protocol.ActionKey:
		return s.doKey(cmd)
	case protocol.ActionClick:
		return s.doClick(cmd)
	case protocol.ActionScroll:
		return s.doScroll(cmd)
	case protocol.ActionWaitFor:
		return s.doWaitFor(cmd)
	case protocol.ActionResize:
		return s.doResize(cmd)
	case protocol.ActionShutdown:
		return s.doShutdown()
	default:
		return nil, protocol.Newf(protocol.InvalidInput, "unknown action %q", cmd.Action)
	}
}

func (s *Server) doSpawn(cmd *protocol.Command) (any, error) {
	if len(cmd.Command) == 0 {
		return nil, protocol.Newf(protocol.InvalidInput, "command must be non-empty").
			WithSuggestion("pass the argv to run, e.g. [\"bash\"]")
	}
	rows, cols := s.cfg.DefaultRows, s.cfg.DefaultCols
	sess, err := s.sessions.Create(sessionmgr.CreateOpts{
		Argv:  cmd.Command,
		Name:  cmd.SessionName,
		Cwd:   cmd.Cwd,
		Size:  ptyproc.Size{Rows: rows, Cols: cols},
		OSCFg: cmd.OSCFg,
		OSCBg: cmd.OSCBg,
	})
	if err != nil {
		return nil, err
	}
	return protocol.SessionCreated{
		Type:      "session_created",
		SessionID: sess.ID,
		Message:   fmt.Sprintf("spawned session %s", sess.ID),
	}, nil
}

func (s *Server) doKill(cmd *protocol.Command) (any, error) {
	sess, err := s.sessions.Resolve(cmd.Session)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Kill(sess.ID); err != nil {
		return nil, err
	}
	return protocol.Ok{Type: "ok", Message: fmt.Sprintf("killed session %s", sess.ID)}, nil
}

func (s *Server) doListSessions() (any, error) {
	infos := s.sessions.List()
	out := protocol.Sessions{Type: "sessions", Sessions: make([]protocol.SessionInfo, 0, len(infos))}
	for _, info := range infos {
		out.Sessions = append(out.Sessions, protocol.SessionInfo{
			ID:        info.ID,
			Name:      info.Name,
			Command:   strings.Join(info.Argv, " "),
			CreatedAt: info.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *Server) doSnapshot(cmd *protocol.Command) (any, error) {
	format := cmd.Format
	if format == "" {
		format = protocol.FormatFull
	}
	timeout := durationOrDefault(cmd.TimeoutMs, 2*time.Second)
	deadline := time.Now().Add(timeout)

	data, err := s.snapshotOnce(cmd.Session, format != protocol.FormatCompact)
	if err != nil {
		return nil, err
	}

	// Compact snapshots skip element detection and carry no content hash,
	// so the change checks below hash the screen text themselves.
	hashOf := func(d *sessionmgr.SnapshotData) uint64 {
		return element.ContentHash(strings.Join(d.Lines, "\n"))
	}

	if cmd.AwaitChange != nil {
		for hashOf(data) == *cmd.AwaitChange && time.Now().Before(deadline) {
			time.Sleep(snapshotPollInterval)
			data, err = s.snapshotOnce(cmd.Session, format != protocol.FormatCompact)
			if err != nil {
				return nil, err
			}
		}
	}

	if cmd.SettleMs > 0 {
		settle := time.Duration(cmd.SettleMs) * time.Millisecond
		prev := hashOf(data)
		for time.Now().Before(deadline) {
			time.Sleep(settle)
			data, err = s.snapshotOnce(cmd.Session, format != protocol.FormatCompact)
			if err != nil {
				return nil, err
			}
			cur := hashOf(data)
			if cur == prev {
				break
			}
			prev = cur
		}
	}

	return formatSnapshot(data, format), nil
}

func (s *Server) snapshotOnce(session string, wantElements bool) (*sessionmgr.SnapshotData, error) {
	return s.sessions.Snapshot(session, wantElements, element.Detect, element.ContentHash)
}

func formatSnapshot(data *sessionmgr.SnapshotData, format string) any {
	switch format {
	case protocol.FormatText:
		return protocol.SnapshotPayload{
			Type:    "snapshot",
			Format:  format,
			Content: renderText(data),
		}
	case protocol.FormatCompact:
		text := strings.Join(data.Lines, "\n")
		return protocol.ScreenState{
			Type:       "screen_state",
			SnapshotID: data.SnapshotID,
			Size:       protocol.Size{Rows: uint16(data.Size.Rows), Cols: uint16(data.Size.Cols)},
			Cursor:     protocol.Cursor{Row: uint16(data.CursorRow), Col: uint16(data.CursorCol), Visible: data.Visible},
			Text:       &text,
		}
	default: // full
		text := strings.Join(data.Lines, "\n")
		hash := data.ContentHash
		return protocol.ScreenState{
			Type:        "screen_state",
			SnapshotID:  data.SnapshotID,
			Size:        protocol.Size{Rows: uint16(data.Size.Rows), Cols: uint16(data.Size.Cols)},
			Cursor:      protocol.Cursor{Row: uint16(data.CursorRow), Col: uint16(data.CursorCol), Visible: data.Visible},
			Text:        &text,
			Elements:    data.Elements,
			ContentHash: &hash,
		}
	}
}

// renderText renders the plain-text snapshot: a "Terminal COLSxROWS" header line,
// then the screen with the cursor cell wrapped in brackets. A cursor past
// the end of its row renders as trailing spaces followed by the literal
// "[_]" marker.
func renderText(data *sessionmgr.SnapshotData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Terminal %dx%d\n", data.Size.Cols, data.Size.Rows)
	for r, line := range data.Lines {
		if r == data.CursorRow {
			runes := []rune(line)
			col := data.CursorCol
			for i, ch := range runes {
				if i == col {
					b.WriteByte('[')
					b.WriteRune(ch)
					b.WriteByte(']')
				} else {
					b.WriteRune(ch)
				}
			}
			if col >= len(runes) {
				for i := len(runes); i < col; i++ {
					b.WriteByte(' ')
				}
				b.WriteString("[_]")
			}
		} else {
			b.WriteString(line)
		}
		if r < len(data.Lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (s *Server) doType(cmd *protocol.Command) (any, error) {
	decoded, err := decodeTypeText(cmd.Text)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Write(cmd.Session, decoded); err != nil {
		return nil, err
	}
	return protocol.Ok{Type: "ok", Message: "typed"}, nil
}

// decodeTypeText decodes \n \r \t \\ and \xNN escapes in text (§4.7).
func decodeTypeText(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	in := []byte(text)
	for i := 0; i < len(in); i++ {
		c := in[i]
		if c != '\\' || i == len(in)-1 {
			out = append(out, c)
			continue
		}
		next := in[i+1]
		switch next {
		case 'n':
			out = append(out, '\n')
			i++
		case 'r':
			out = append(out, '\r')
			i++
		case 't':
			out = append(out, '\t')
			i++
		case '\\':
			out = append(out, '\\')
			i++
		case 'x':
			if i+3 >= len(in) {
				return nil, protocol.Newf(protocol.InvalidInput, "truncated \\x escape")
			}
			v, err := strconv.ParseUint(string(in[i+2:i+4]), 16, 8)
			if err != nil {
				return nil, protocol.Newf(protocol.InvalidInput, "invalid \\x escape: %v", err)
			}
			out = append(out, byte(v))
			i += 3
		default:
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Server) doKey(cmd *protocol.Command) (any, error) {
	appCursor, err := s.sessions.AppCursorMode(cmd.Session)
	if err != nil {
		return nil, err
	}
	seqs, err := parseKeySequence(cmd.Key, appCursor)
	if err != nil {
		return nil, err
	}
	delay := cmd.DelayMs
	if delay > maxDelayMs {
		delay = maxDelayMs
	}
	for i, seq := range seqs {
		if err := s.sessions.Write(cmd.Session, seq); err != nil {
			return nil, err
		}
		if i < len(seqs)-1 && delay > 0 {
			time.Sleep(time.Duration(delay) * time.Millisecond)
		}
	}
	return protocol.Ok{Type: "ok", Message: "key sent"}, nil
}

func (s *Server) doClick(cmd *protocol.Command) (any, error) {
	seq := encodeSGRClick(cmd.Row, cmd.Col)
	if err := s.sessions.Write(cmd.Session, seq); err != nil {
		return nil, err
	}
	return protocol.Ok{Type: "ok", Message: "clicked"}, nil
}

func (s *Server) doScroll(cmd *protocol.Command) (any, error) {
	if cmd.Amount > maxScrollAmount {
		return nil, protocol.Newf(protocol.InvalidInput, "scroll amount %d exceeds max %d", cmd.Amount, maxScrollAmount)
	}
	sess, err := s.sessions.Resolve(cmd.Session)
	if err != nil {
		return nil, err
	}
	rows, cols := sess.Emulator().Size()
	seq, err := encodeSGRWheel(cmd.Direction, cmd.Amount, uint16(rows), uint16(cols))
	if err != nil {
		return nil, protocol.Newf(protocol.InvalidInput, "%v", err)
	}
	if err := sess.WritePTY(seq); err != nil {
		return nil, err
	}
	return protocol.Ok{Type: "ok", Message: "scrolled"}, nil
}

func (s *Server) doWaitFor(cmd *protocol.Command) (any, error) {
	sess, err := s.sessions.Resolve(cmd.Session)
	if err != nil {
		return nil, err
	}
	var re *regexp.Regexp
	if cmd.Regex {
		re, err = regexp.Compile(cmd.Pattern)
		if err != nil {
			return nil, protocol.Newf(protocol.InvalidInput, "invalid regex: %v", err)
		}
	}
	timeout := durationOrDefault(cmd.TimeoutMs, 5*time.Second)
	deadline := time.Now().Add(timeout)
	start := time.Now()

	for {
		sess.Drain()
		text := strings.Join(sess.Emulator().GetText(), "\n")
		matched, substr := matchPattern(text, cmd.Pattern, re)
		if matched {
			return protocol.WaitForResult{
				Type:        "wait_for_result",
				Found:       true,
				MatchedText: substr,
				ElapsedMs:   time.Since(start).Milliseconds(),
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, protocol.Newf(protocol.CommandFailed, "wait_for timed out after %s without matching %q", timeout, cmd.Pattern)
		}
		time.Sleep(waitForPollInterval)
	}
}

func matchPattern(text, pattern string, re *regexp.Regexp) (bool, string) {
	if re != nil {
		if loc := re.FindStringIndex(text); loc != nil {
			return true, text[loc[0]:loc[1]]
		}
		return false, ""
	}
	if strings.Contains(text, pattern) {
		return true, pattern
	}
	return false, ""
}

func (s *Server) doResize(cmd *protocol.Command) (any, error) {
	if cmd.Cols == 0 || cmd.Rows == 0 {
		return nil, protocol.Newf(protocol.InvalidInput, "cols and rows must both be non-zero")
	}
	if err := s.sessions.Resize(cmd.Session, ptyproc.Size{Rows: int(cmd.Rows), Cols: int(cmd.Cols)}); err != nil {
		return nil, err
	}
	return protocol.Ok{Type: "ok", Message: "resized"}, nil
}

func (s *Server) doShutdown() (any, error) {
	go func() {
		time.Sleep(50 * time.Millisecond)
		s.sessions.KillAll()
		s.triggerShutdown()
	}()
	return protocol.Ok{Type: "ok", Message: "shutting down"}, nil
}

func durationOrDefault(ms uint64, def time.Duration) time.Duration {
	if ms == 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
