package termemu

// modeTracker scans raw PTY output for the two DEC private-mode sequences
// the daemon cares about but midterm does not surface on its own: DECTCEM
// (cursor visibility, mode 25) and DECCKM (application cursor keys, mode
// 1). It is a narrow byte-level scanner in the same style as the teacher's
// plain-text ANSI capture state machine, restricted to the handful of
// sequences that matter here instead of a full parser.
type modeTracker struct {
	cursorVisible bool
	appCursorKeys bool
}

// scan updates the tracked modes in place, processing sequences in the
// order they appear so later writes in the same chunk win.
func (m *modeTracker) scan(data []byte) {
	for i := 0; i < len(data); i++ {
		if data[i] != 0x1b || i+2 >= len(data) || data[i+1] != '[' || data[i+2] != '?' {
			continue
		}
		j := i + 3
		start := j
		for j < len(data) && data[j] >= '0' && data[j] <= '9' {
			j++
		}
		if j >= len(data) || j == start {
			continue
		}
		final := data[j]
		if final != 'h' && final != 'l' {
			continue
		}
		switch string(data[start:j]) {
		case "25":
			m.cursorVisible = final == 'h'
		case "1":
			m.appCursorKeys = final == 'h'
		}
		i = j
	}
}
