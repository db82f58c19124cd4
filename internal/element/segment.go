package element

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"ptyd/internal/termemu"
)

// segmentRow groups a row's cells into style-uniform clusters, dropping
// any cluster whose text is entirely whitespace. Columns are measured in
// display width so East-Asian wide characters count as 2 (§4.5).
func segmentRow(row []termemu.Cell, rowIdx int) []Cluster {
	var clusters []Cluster
	col := 0
	i := 0
	for i < len(row) {
		style := row[i].Style
		startCol := col
		var sb strings.Builder
		for i < len(row) && row[i].Style == style {
			r := cellRune(row[i])
			sb.WriteRune(r)
			col += runewidth.RuneWidth(r)
			i++
		}
		text := sb.String()
		if strings.TrimSpace(text) == "" {
			continue
		}
		clusters = append(clusters, Cluster{
			Row:   rowIdx,
			Col:   startCol,
			Width: col - startCol,
			Text:  text,
			Style: style,
		})
	}
	return clusters
}

// cellRune treats an unwritten (zero-value) cell as a space, the way a
// freshly allocated terminal grid reads before anything is painted onto it.
func cellRune(c termemu.Cell) rune {
	if c.Rune == 0 {
		return ' '
	}
	return c.Rune
}

// displayWidth is runewidth.StringWidth under the name used throughout
// this package, kept as a thin wrapper so the CJK-aware rule in §4.5 has
// one obvious call site.
func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}
