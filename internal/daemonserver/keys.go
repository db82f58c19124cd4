package daemonserver

import (
	"strings"

	"ptyd/internal/protocol"
)

// parseKeySequence splits a key request's key field on whitespace and
// parses each token independently, returning one byte sequence per token
// in order (§4.7).
func parseKeySequence(key string, appCursorMode bool) ([][]byte, error) {
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return nil, protocol.Newf(protocol.InvalidInput, "empty key")
	}
	seqs := make([][]byte, 0, len(fields))
	for _, tok := range fields {
		b, err := parseKeyToken(tok, appCursorMode)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, b)
	}
	return seqs, nil
}

var namedKeys = map[string][]byte{
	"enter":    {'\r'},
	"return":   {'\r'},
	"tab":      {'\t'},
	"escape":   {0x1b},
	"esc":      {0x1b},
	"backspace": {0x7f},
	"delete":   {0x1b, '[', '3', '~'},
	"del":      {0x1b, '[', '3', '~'},
	"space":    {' '},
	"plus":     {'+'},
	"home":     {0x1b, '[', 'H'},
	"end":      {0x1b, '[', 'F'},
	"pageup":   {0x1b, '[', '5', '~'},
	"pgup":     {0x1b, '[', '5', '~'},
	"pagedown": {0x1b, '[', '6', '~'},
	"pgdn":     {0x1b, '[', '6', '~'},
	"insert":   {0x1b, '[', '2', '~'},
	"ins":      {0x1b, '[', '2', '~'},
	"f1": {0x1b, 'O', 'P'}, "f2": {0x1b, 'O', 'Q'}, "f3": {0x1b, 'O', 'R'}, "f4": {0x1b, 'O', 'S'},
	"f5": {0x1b, '[', '1', '5', '~'}, "f6": {0x1b, '[', '1', '7', '~'},
	"f7": {0x1b, '[', '1', '8', '~'}, "f8": {0x1b, '[', '1', '9', '~'},
	"f9": {0x1b, '[', '2', '0', '~'}, "f10": {0x1b, '[', '2', '1', '~'},
	"f11": {0x1b, '[', '2', '3', '~'}, "f12": {0x1b, '[', '2', '4', '~'},
}

// arrowFinals maps each arrow key name to its final byte, which is the same
// in the CSI (normal) and SS3 (application cursor mode) encodings.
var arrowFinals = map[string]byte{"up": 'A', "down": 'B', "right": 'C', "left": 'D'}

func parseKeyToken(tok string, appCursorMode bool) ([]byte, error) {
	combo := strings.Split(tok, "+")
	key := combo[len(combo)-1]
	mods := combo[:len(combo)-1]

	base, err := parseBaseKey(key, appCursorMode)
	if err != nil {
		return nil, err
	}

	var ctrl, alt, shift bool
	for _, m := range mods {
		switch strings.ToLower(m) {
		case "ctrl", "control":
			ctrl = true
		case "alt", "meta", "option":
			alt = true
		case "shift":
			shift = true
		default:
			return nil, protocol.Newf(protocol.InvalidInput, "unknown modifier %q", m).
				WithSuggestion("modifiers are Ctrl, Alt, Meta, Option, Shift")
		}
	}

	if shift && len(base) == 1 && base[0] >= 'a' && base[0] <= 'z' {
		base = []byte{base[0] - 0x20}
	}
	if ctrl {
		b, err := controlByte(key)
		if err != nil {
			return nil, err
		}
		base = []byte{b}
	}
	if alt {
		out := make([]byte, 0, len(base)+1)
		out = append(out, 0x1b)
		out = append(out, base...)
		base = out
	}
	return base, nil
}

func parseBaseKey(key string, appCursorMode bool) ([]byte, error) {
	lower := strings.ToLower(key)
	if final, ok := arrowFinals[lower]; ok {
		if appCursorMode {
			return []byte{0x1b, 'O', final}, nil
		}
		return []byte{0x1b, '[', final}, nil
	}
	if seq, ok := namedKeys[lower]; ok {
		return append([]byte(nil), seq...), nil
	}
	if len([]rune(key)) != 1 {
		return nil, protocol.Newf(protocol.InvalidInput, "unknown key %q", key).
			WithSuggestion("use a named key (Enter, Tab, Up, ...) or a single character")
	}
	return []byte(key), nil
}

// controlByte computes the control byte for Ctrl+key per §4.7: letters map
// A-Z to 0x01-0x1A, digits 2-7 map to the same bytes as their punctuation
// siblings, and a fixed set of punctuation/space map to specific bytes.
func controlByte(key string) (byte, error) {
	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= 'a' && c <= 'z':
			return c - 'a' + 1, nil
		case c >= 'A' && c <= 'Z':
			return c - 'A' + 1, nil
		}
	}
	switch strings.ToLower(key) {
	case "@", "2":
		return 0x00, nil
	case "[", "3":
		return 0x1b, nil
	case "\\", "4":
		return 0x1c, nil
	case "]", "5":
		return 0x1d, nil
	case "^", "6":
		return 0x1e, nil
	case "_", "7":
		return 0x1f, nil
	case "?":
		return 0x7f, nil
	case "space":
		return 0x00, nil
	}
	return 0, protocol.Newf(protocol.InvalidInput, "Ctrl+%s has no control byte mapping", key)
}
