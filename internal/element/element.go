// Package element runs the four-stage UI element detection pipeline over a
// terminal emulator's cell grid: segmentation into style-uniform clusters,
// tokenization of bracket/underscore sub-patterns, priority-ordered
// classification, and sub-cluster extraction (§4.5). All of it is pure
// functions of the grid; nothing here touches the PTY or the socket.
package element

import (
	"sort"

	"ptyd/internal/protocol"
	"ptyd/internal/termemu"
)

// Cluster is a run of adjacent cells in one row sharing an identical style.
type Cluster struct {
	Row   int
	Col   int // display column
	Width int // display width
	Text  string
	Style termemu.Style
}

// Token is a bracketed group or underscore run found inside a cluster's
// text, with its byte offset into that text.
type Token struct {
	ByteOffset int
	Text       string
}

// Detect runs the full pipeline over grid and returns the elements found,
// sorted by (row, col).
func Detect(grid [][]termemu.Cell, cursorRow, cursorCol int) []protocol.Element {
	var elements []protocol.Element
	for row := range grid {
		for _, c := range segmentRow(grid[row], row) {
			elements = append(elements, classifyCluster(c, cursorRow, cursorCol)...)
		}
	}
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].Row != elements[j].Row {
			return elements[i].Row < elements[j].Row
		}
		return elements[i].Col < elements[j].Col
	})
	return elements
}
