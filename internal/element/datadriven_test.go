package element_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"ptyd/internal/element"
	"ptyd/internal/termemu"
)

// TestElementsGolden drives the detection pipeline end to end: raw PTY-style
// bytes in, detected elements out, checked against testdata/ golden files.
func TestElementsGolden(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "elements":
				rows, cols := intArg(d, "rows", 4), intArg(d, "cols", 40)
				cursorRow, cursorCol := intArg(d, "cursor_row", -1), intArg(d, "cursor_col", -1)

				// Golden-file input blocks are LF-separated; a real PTY in
				// cooked mode always precedes LF with CR, so restore that
				// before feeding the emulator. `\x1b` is written literally
				// in the golden file since a raw ESC byte isn't typeable
				// there, so unescape it back to the real control byte.
				raw := strings.ReplaceAll(d.Input, "\n", "\r\n")
				raw = strings.ReplaceAll(raw, `\x1b`, "\x1b")

				emu := termemu.New(rows, cols)
				emu.Feed([]byte(raw))
				els := element.Detect(emu.Grid(), cursorRow, cursorCol)

				var sb strings.Builder
				for _, e := range els {
					checked := "-"
					if e.Checked != nil {
						checked = strconv.FormatBool(*e.Checked)
					}
					fmt.Fprintf(&sb, "%s row=%d col=%d width=%d text=%q confidence=%.1f focused=%v checked=%s\n",
						e.Kind, e.Row, e.Col, e.Width, e.Text, e.Confidence, e.Focused, checked)
				}
				if sb.Len() == 0 {
					return "(no elements)\n"
				}
				return sb.String()
			default:
				t.Fatalf("unknown datadriven command %q", d.Cmd)
				return ""
			}
		})
	})
}

func intArg(d *datadriven.TestData, key string, fallback int) int {
	for _, arg := range d.CmdArgs {
		if arg.Key == key && len(arg.Vals) == 1 {
			n, err := strconv.Atoi(arg.Vals[0])
			if err == nil {
				return n
			}
		}
	}
	return fallback
}
