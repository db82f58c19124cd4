package daemonserver

import "fmt"

// SGR mouse button codes (§4.7).
const (
	sgrButtonLeft    = 0
	sgrButtonWheelUp = 64
	sgrButtonWheelDn = 65
)

// encodeSGRClick builds a press+release pair of SGR mouse sequences for a
// left click at the given 0-indexed row/col, which the protocol reports as
// 1-indexed in the escape sequence itself.
func encodeSGRClick(row, col uint16) []byte {
	x, y := sgrCoord(col), sgrCoord(row)
	press := fmt.Sprintf("\x1b[<%d;%d;%dM", sgrButtonLeft, x, y)
	release := fmt.Sprintf("\x1b[<%d;%d;%dm", sgrButtonLeft, x, y)
	return []byte(press + release)
}

// encodeSGRWheel builds one SGR wheel event at the screen center, repeated
// amount times, for a scroll in the given direction.
func encodeSGRWheel(direction string, amount uint32, rows, cols uint16) ([]byte, error) {
	button := sgrButtonWheelUp
	switch direction {
	case "up":
		button = sgrButtonWheelUp
	case "down":
		button = sgrButtonWheelDn
	default:
		return nil, fmt.Errorf("unknown scroll direction %q", direction)
	}
	x, y := sgrCoord(cols/2), sgrCoord(rows/2)
	event := fmt.Sprintf("\x1b[<%d;%d;%dM", button, x, y)
	out := make([]byte, 0, len(event)*int(amount))
	for i := uint32(0); i < amount; i++ {
		out = append(out, event...)
	}
	return out, nil
}

// sgrCoord converts a 0-indexed cell coordinate to the SGR protocol's
// 1-indexed form, saturating rather than overflowing uint16.
func sgrCoord(v uint16) uint16 {
	if v == 65535 {
		return 65535
	}
	return v + 1
}
