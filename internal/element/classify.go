package element

import "ptyd/internal/protocol"

// Kind values match the wire protocol's lowercase discriminators (§6).
const (
	kindButton = "button"
	kindInput  = "input"
	kindToggle = "toggle"
)

// classifyCluster runs stages 3 and 4 of the pipeline for a single cluster:
// classification in priority order, then sub-cluster (token) extraction
// when the whole cluster isn't one of the tight shapes named in §4.5.
func classifyCluster(c Cluster, cursorRow, cursorCol int) []protocol.Element {
	cursorIn := cursorRow == c.Row && cursorCol >= c.Col && cursorCol < c.Col+c.Width

	if checked, ok := checkboxMatch(c.Text); ok {
		return []protocol.Element{{
			Kind: kindToggle, Row: uint16(c.Row), Col: uint16(c.Col), Width: uint16(c.Width),
			Text: c.Text, Confidence: 1.0, Checked: &checked,
		}}
	}

	if isTightBracketOrUnderscore(c.Text) {
		return wholeClusterElement(c, cursorIn)
	}

	tokens := tokenizeCluster(c.Text)
	var tokenElems []protocol.Element
	for _, tok := range tokens {
		tokenCol := c.Col + displayWidth(c.Text[:tok.ByteOffset])
		tokenWidth := displayWidth(tok.Text)
		tokenCursorIn := cursorRow == c.Row && cursorCol >= tokenCol && cursorCol < tokenCol+tokenWidth
		kind, checked, conf, focused, ok := classifyShape(tok.Text, tokenCursorIn)
		if !ok {
			continue
		}
		if c.Style.Inverse {
			focused = true
			conf = 1.0
		}
		tokenElems = append(tokenElems, protocol.Element{
			Kind: kind, Row: uint16(c.Row), Col: uint16(tokenCol), Width: uint16(tokenWidth),
			Text: tok.Text, Confidence: conf, Focused: focused, Checked: checked,
		})
	}
	if len(tokenElems) > 0 {
		return tokenElems
	}

	return wholeClusterElement(c, cursorIn)
}

// isTightBracketOrUnderscore reports whether text's whole shape is one of
// the two non-toggle "tight" patterns named in §4.5 stage 4: the cluster
// IS a bracket pattern, or the cluster IS an underscore run.
func isTightBracketOrUnderscore(text string) bool {
	if _, ok := bracketWholePattern(text); ok {
		return true
	}
	return isUnderscoreOnlyPattern(text)
}

// wholeClusterElement classifies c as a whole, honoring its style for the
// inverse-video Button rule and the cursor-catch-all Input rule.
func wholeClusterElement(c Cluster, cursorIn bool) []protocol.Element {
	if c.Style.Inverse {
		return []protocol.Element{{
			Kind: kindButton, Row: uint16(c.Row), Col: uint16(c.Col), Width: uint16(c.Width),
			Text: c.Text, Confidence: 1.0, Focused: true,
		}}
	}
	kind, checked, conf, focused, ok := classifyShape(c.Text, cursorIn)
	if !ok {
		return nil
	}
	return []protocol.Element{{
		Kind: kind, Row: uint16(c.Row), Col: uint16(c.Col), Width: uint16(c.Width),
		Text: c.Text, Confidence: conf, Focused: focused, Checked: checked,
	}}
}

// classifyShape applies the shape-only rules (checkbox Toggle, bracket
// Button, input Input, cursor-catch-all Input) that apply identically
// whether text is a whole cluster or a token extracted from one. Inverse
// video is handled by the caller since it depends on the cluster style,
// which classifyShape doesn't have.
func classifyShape(text string, cursorIn bool) (kind string, checked *bool, confidence float64, focused bool, ok bool) {
	if checkedVal, ok := checkboxMatch(text); ok {
		return kindToggle, &checkedVal, 1.0, false, true
	}
	if _, ok := bracketWholePattern(text); ok {
		conf := 0.8
		if cursorIn {
			conf = 1.0
		}
		return kindButton, nil, conf, false, true
	}
	if isInputWholePattern(text) {
		conf := 0.6
		if cursorIn {
			conf = 1.0
		}
		return kindInput, nil, conf, false, true
	}
	if cursorIn {
		return kindInput, nil, 1.0, true, true
	}
	return "", nil, 0, false, false
}
