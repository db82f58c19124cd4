package daemonserver

import (
	"strings"
	"testing"
)

func TestEncodeSGRClick(t *testing.T) {
	got := string(encodeSGRClick(0, 0))
	want := "\x1b[<0;1;1M\x1b[<0;1;1m"
	if got != want {
		t.Fatalf("encodeSGRClick(0,0) = %q, want %q", got, want)
	}
}

func TestEncodeSGRClickConvertsToOneIndexed(t *testing.T) {
	got := string(encodeSGRClick(4, 9))
	if !strings.Contains(got, ";10;5M") {
		t.Fatalf("encodeSGRClick(row=4,col=9) = %q, want col=10 row=5 in the press sequence", got)
	}
	if !strings.HasSuffix(got, ";10;5m") {
		t.Fatalf("encodeSGRClick(row=4,col=9) = %q, want a release sequence with the same coords", got)
	}
}

func TestEncodeSGRWheelDirections(t *testing.T) {
	up, err := encodeSGRWheel("up", 1, 24, 80)
	if err != nil {
		t.Fatalf("encodeSGRWheel(up): %v", err)
	}
	if !strings.Contains(string(up), "<64;") {
		t.Fatalf("wheel up = %q, want button code 64", up)
	}

	down, err := encodeSGRWheel("down", 1, 24, 80)
	if err != nil {
		t.Fatalf("encodeSGRWheel(down): %v", err)
	}
	if !strings.Contains(string(down), "<65;") {
		t.Fatalf("wheel down = %q, want button code 65", down)
	}
}

func TestEncodeSGRWheelRepeatsAmount(t *testing.T) {
	out, err := encodeSGRWheel("up", 3, 24, 80)
	if err != nil {
		t.Fatalf("encodeSGRWheel: %v", err)
	}
	if n := strings.Count(string(out), "\x1b[<64;"); n != 3 {
		t.Fatalf("encodeSGRWheel amount=3 produced %d events, want 3", n)
	}
}

func TestEncodeSGRWheelUsesScreenCenter(t *testing.T) {
	out, err := encodeSGRWheel("up", 1, 24, 80)
	if err != nil {
		t.Fatalf("encodeSGRWheel: %v", err)
	}
	want := "\x1b[<64;41;13M"
	if string(out) != want {
		t.Fatalf("encodeSGRWheel(24x80) = %q, want %q", out, want)
	}
}

func TestEncodeSGRWheelUnknownDirection(t *testing.T) {
	if _, err := encodeSGRWheel("sideways", 1, 24, 80); err == nil {
		t.Fatal("encodeSGRWheel with unknown direction should error")
	}
}

func TestSGRCoordConvertsAndSaturates(t *testing.T) {
	if got := sgrCoord(0); got != 1 {
		t.Fatalf("sgrCoord(0) = %d, want 1", got)
	}
	if got := sgrCoord(79); got != 80 {
		t.Fatalf("sgrCoord(79) = %d, want 80", got)
	}
	if got := sgrCoord(65535); got != 65535 {
		t.Fatalf("sgrCoord(65535) = %d, want 65535 (saturated, not wrapped)", got)
	}
}
