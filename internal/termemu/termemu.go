// Package termemu wraps a vt100/xterm emulator with the narrow read surface
// the daemon needs: cursor position and visibility, per-cell style, and
// plain text extraction (§4.2). It layers a small private-mode side channel
// on top of the emulator for the two bits midterm does not surface directly:
// cursor visibility (DECTCEM) and application cursor mode (DECCKM).
package termemu

import (
	"strings"
	"sync"

	"github.com/vito/midterm"
)

// Cell is one terminal cell: its rune and the style it was written with.
type Cell struct {
	Rune  rune
	Style Style
}

// Emulator feeds PTY output through a VT100 interpreter and exposes the
// resulting screen state. Safe for concurrent Feed/read calls; callers that
// need a consistent multi-field read (e.g. a snapshot) should still hold
// their own lock across the whole read, since each accessor here locks
// independently.
type Emulator struct {
	mu   sync.Mutex
	vt   *midterm.Terminal
	mode modeTracker
	cols int
}

// New creates an emulator for a screen of the given size in character
// cells. rows/cols must be positive.
func New(rows, cols int) *Emulator {
	vt := midterm.NewTerminal(rows, cols)
	vt.AutoResizeY = false
	return &Emulator{vt: vt, cols: cols, mode: modeTracker{cursorVisible: true}}
}

// Feed interprets a chunk of PTY output, advancing cursor, screen content
// and the cursor-visibility/application-cursor-mode side channel.
func (e *Emulator) Feed(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode.scan(data)
	e.vt.Write(data)
}

// Resize changes the emulator's screen dimensions, reflowing content the
// way a real terminal does on SIGWINCH.
func (e *Emulator) Resize(rows, cols int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vt.Resize(rows, cols)
	e.cols = cols
}

// Size returns the current (rows, cols).
func (e *Emulator) Size() (rows, cols int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.vt.Content), e.cols
}

// Cursor returns the 0-indexed cursor row and column.
func (e *Emulator) Cursor() (row, col int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vt.Cursor.Y, e.vt.Cursor.X
}

// CursorVisible reports whether the last DECTCEM sequence seen left the
// cursor visible (the default, absent any such sequence).
func (e *Emulator) CursorVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode.cursorVisible
}

// ApplicationCursorMode reports whether DECCKM (application cursor keys)
// is currently enabled, which changes how arrow keys are encoded (§4.7).
func (e *Emulator) ApplicationCursorMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode.appCursorKeys
}

// GetText returns the screen content as one string per row, with trailing
// blanks trimmed from each line.
func (e *Emulator) GetText() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	lines := make([]string, len(e.vt.Content))
	for i, row := range e.vt.Content {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return lines
}

// CellAt returns the rune and style at (row, col). Out-of-bounds positions
// return the zero Cell.
func (e *Emulator) CellAt(row, col int) Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	if row < 0 || row >= len(e.vt.Content) {
		return Cell{}
	}
	line := e.vt.Content[row]
	if col < 0 || col >= len(line) {
		return Cell{}
	}
	return Cell{Rune: line[col], Style: e.styleAt(row, col)}
}

// Grid returns the full screen as a row-major slice of cells, computed in
// one pass per row from midterm's format regions rather than one cell at a
// time (§4.5 feeds this directly into the element detector).
func (e *Emulator) Grid() [][]Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows := len(e.vt.Content)
	grid := make([][]Cell, rows)
	for r := 0; r < rows; r++ {
		grid[r] = e.rowCells(r)
	}
	return grid
}

// styleAt recomputes the style for a single cell by walking that row's
// format regions. Used only by CellAt; Grid amortizes this across a row.
func (e *Emulator) styleAt(row, col int) Style {
	cells := e.rowCells(row)
	if col < len(cells) {
		return cells[col].Style
	}
	return Style{}
}

// rowCells expands midterm's run-length style regions for a row into one
// Style per cell. Must be called with e.mu held.
func (e *Emulator) rowCells(row int) []Cell {
	line := e.vt.Content[row]
	cells := make([]Cell, len(line))
	for i, r := range line {
		cells[i].Rune = r
	}
	col := 0
	for region := range e.vt.Format.Regions(row) {
		st := parseSGR(region.F.Render())
		for i := 0; i < region.Size && col < len(cells); i++ {
			cells[col].Style = st
			col++
		}
	}
	return cells
}
