package element

import "strings"

// checkboxMatch reports whether text is exactly one of the recognized
// checkbox spellings, and what checked state it represents (§4.5).
func checkboxMatch(text string) (checked bool, ok bool) {
	switch text {
	case "[x]", "[X]", "[*]", "(x)":
		return true, true
	case "[ ]", "[.]", "( )":
		return false, true
	}
	runes := []rune(text)
	if len(runes) == 1 {
		switch runes[0] {
		case '☑', '✓', '✔', '☒':
			return true, true
		case '☐', '□':
			return false, true
		}
	}
	return false, false
}

// progressGlyphs are the fill/track characters a terminal progress bar is
// typically drawn from; an interior made up only of these is excluded from
// the bracket-Button pattern so `[#####-----]` doesn't read as a button.
var progressGlyphs = map[rune]bool{
	'#': true, '=': true, '-': true, '█': true,
	'▓': true, '░': true, '▒': true, '•': true, '●': true, '○': true,
}

func isProgressBarInterior(interior string) bool {
	if len(interior) < 2 {
		return false
	}
	for _, r := range interior {
		if !progressGlyphs[r] {
			return false
		}
	}
	return true
}

// bracketWholePattern reports whether text is exactly one bracketed group
// `[label]` / `<label>` / `(label)` / `【label】` / `「label」` with a
// non-empty label that contains no further bracket characters and is not
// checkbox or progress-bar content (§4.5).
func bracketWholePattern(text string) (label string, ok bool) {
	runes := []rune(text)
	if len(runes) < 3 {
		return "", false
	}
	closer, isOpen := bracketClosers[runes[0]]
	if !isOpen || runes[len(runes)-1] != closer {
		return "", false
	}
	inner := string(runes[1 : len(runes)-1])
	if strings.TrimSpace(inner) == "" {
		return "", false
	}
	if containsAnyBracket(inner) {
		return "", false
	}
	if _, isCheckbox := checkboxMatch(text); isCheckbox {
		return "", false
	}
	if isProgressBarInterior(inner) {
		return "", false
	}
	return inner, true
}

func containsAnyBracket(s string) bool {
	for _, r := range s {
		if _, ok := bracketClosers[r]; ok {
			return true
		}
		for _, closer := range bracketClosers {
			if r == closer {
				return true
			}
		}
	}
	return false
}

// isUnderscoreOnlyPattern reports whether text is nothing but 3+
// underscores, the "tight" Input shape named explicitly in §4.5 stage 4.
func isUnderscoreOnlyPattern(text string) bool {
	if len(text) < 3 {
		return false
	}
	for _, r := range text {
		if r != '_' {
			return false
		}
	}
	return true
}

// isInputWholePattern reports whether text as a whole reads as an input
// field: a bare underscore run, bracketed spaces-only content, or a
// "label: ___" trailing-blank form (§4.5).
func isInputWholePattern(text string) bool {
	if isUnderscoreOnlyPattern(text) {
		return true
	}
	runes := []rune(text)
	if len(runes) >= 3 && runes[0] == '[' && runes[len(runes)-1] == ']' {
		inner := string(runes[1 : len(runes)-1])
		if inner != "" && strings.TrimSpace(inner) == "" {
			return true
		}
	}
	if idx := strings.LastIndex(text, ":"); idx >= 0 {
		tail := strings.TrimLeft(text[idx+1:], " ")
		if isUnderscoreOnlyPattern(tail) {
			return true
		}
	}
	return false
}
