package termemu

import "strings"

// Style is the subset of SGR attributes the element detector and snapshot
// renderer care about (§3). Colors are kept as short strings rather than
// resolved RGB: the plain SGR code for 16-color values ("31"), "idx:196"
// for 256-color values and "rgb:10:20:30" for truecolor, since all the
// daemon does with them is compare two cells for "same style" or report an
// inverse-video flag.
type Style struct {
	FG        string
	BG        string
	Bold      bool
	Underline bool
	Inverse   bool
}

// parseSGR extracts a Style from a rendered SGR escape sequence, as
// produced by midterm's Format.Render(). A rendered region may carry
// several "\x1b[...m" groups (e.g. a reset followed by the real
// attributes); each is processed in order so the result reflects the net
// effect, matching how a real terminal would apply them.
func parseSGR(seq string) Style {
	var st Style
	for {
		start := strings.IndexByte(seq, 0x1b)
		if start < 0 || start+1 >= len(seq) || seq[start+1] != '[' {
			return st
		}
		end := strings.IndexByte(seq[start:], 'm')
		if end < 0 {
			return st
		}
		params := strings.Split(seq[start+2:start+end], ";")
		applySGRParams(&st, params)
		seq = seq[start+end+1:]
	}
}

func applySGRParams(st *Style, params []string) {
	for i := 0; i < len(params); i++ {
		p := params[i]
		if p == "" {
			p = "0"
		}
		switch p {
		case "0":
			*st = Style{}
		case "1":
			st.Bold = true
		case "4":
			st.Underline = true
		case "7":
			st.Inverse = true
		case "22":
			st.Bold = false
		case "24":
			st.Underline = false
		case "27":
			st.Inverse = false
		case "39":
			st.FG = ""
		case "49":
			st.BG = ""
		case "38", "48":
			consumed, color := parseExtendedColor(params[i+1:])
			if p == "38" {
				st.FG = color
			} else {
				st.BG = color
			}
			i += consumed
		default:
			if isPlainColorCode(p) {
				if codeIsBackground(p) {
					st.BG = p
				} else {
					st.FG = p
				}
			}
		}
	}
}

// parseExtendedColor parses the params following a 38/48 introducer,
// returning how many extra params it consumed and the normalized color
// string.
func parseExtendedColor(rest []string) (consumed int, color string) {
	if len(rest) == 0 {
		return 0, ""
	}
	switch rest[0] {
	case "5":
		if len(rest) >= 2 {
			return 2, "idx:" + rest[1]
		}
		return 1, ""
	case "2":
		if len(rest) >= 4 {
			return 4, "rgb:" + rest[1] + ":" + rest[2] + ":" + rest[3]
		}
		return len(rest), ""
	default:
		return 0, ""
	}
}

func isPlainColorCode(p string) bool {
	n := 0
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	switch {
	case n >= 30 && n <= 37:
		return true
	case n >= 40 && n <= 47:
		return true
	case n >= 90 && n <= 97:
		return true
	case n >= 100 && n <= 107:
		return true
	}
	return false
}

func codeIsBackground(p string) bool {
	n := 0
	for _, c := range p {
		n = n*10 + int(c-'0')
	}
	return (n >= 40 && n <= 47) || (n >= 100 && n <= 107)
}
