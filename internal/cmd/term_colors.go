package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// terminalHints captures the host terminal's OSC 10/11 foreground and
// background colors, detected once at spawn time so the PTY child's own
// color queries get a truthful answer instead of silence (the daemon's OSC
// auto-responder needs a palette to answer from).
type terminalHints struct {
	OscFg string
	OscBg string
}

// detectTerminalHints queries the real terminal's palette via termenv. It
// is a no-op (zero value) when stdout isn't a TTY, matching x/term's
// IsTerminal gate elsewhere in the teacher's CLI layer.
func detectTerminalHints() terminalHints {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return terminalHints{}
	}
	output := termenv.NewOutput(os.Stdout)
	var hints terminalHints
	if fg := output.ForegroundColor(); fg != nil {
		hints.OscFg = sequenceToX11(fg.Sequence(false))
	}
	if bg := output.BackgroundColor(); bg != nil {
		hints.OscBg = sequenceToX11(bg.Sequence(true))
	}
	return hints
}

// sequenceToX11 converts a termenv truecolor SGR sequence ("38;2;r;g;b" or
// "48;2;r;g;b") into the X11 "rgb:RRRR/GGGG/BBBB" form real terminals use
// in OSC 10/11 replies. Non-truecolor sequences (16/256-color fallback)
// have no faithful RGB equivalent here and are left blank; when both hints
// are blank the daemon answers from its own default palette instead.
func sequenceToX11(seq string) string {
	parts := strings.Split(seq, ";")
	if len(parts) != 5 || (parts[0] != "38" && parts[0] != "48") || parts[1] != "2" {
		return ""
	}
	r, err1 := strconv.Atoi(parts[2])
	g, err2 := strconv.Atoi(parts[3])
	b, err3 := strconv.Atoi(parts[4])
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	return "rgb:" + doubleHex(r) + "/" + doubleHex(g) + "/" + doubleHex(b)
}

func doubleHex(component int) string {
	h := strconv.FormatInt(int64(component&0xff), 16)
	if len(h) == 1 {
		h = "0" + h
	}
	return h + h
}
