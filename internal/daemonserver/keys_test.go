package daemonserver

import (
	"bytes"
	"testing"
)

func TestControlByteLetters(t *testing.T) {
	b, err := controlByte("a")
	if err != nil || b != 0x01 {
		t.Fatalf("Ctrl+a = %#x, %v; want 0x01, nil", b, err)
	}
	b, err = controlByte("Z")
	if err != nil || b != 0x1a {
		t.Fatalf("Ctrl+Z = %#x, %v; want 0x1a, nil", b, err)
	}
}

func TestControlByteDigitsAndPunctuation(t *testing.T) {
	cases := []struct {
		key  string
		want byte
	}{
		{"@", 0x00},
		{"2", 0x00},
		{"[", 0x1b},
		{"3", 0x1b},
		{"\\", 0x1c},
		{"4", 0x1c},
		{"]", 0x1d},
		{"5", 0x1d},
		{"^", 0x1e},
		{"6", 0x1e},
		{"_", 0x1f},
		{"7", 0x1f},
		{"?", 0x7f},
		{"space", 0x00},
	}
	for _, c := range cases {
		got, err := controlByte(c.key)
		if err != nil {
			t.Fatalf("controlByte(%q): %v", c.key, err)
		}
		if got != c.want {
			t.Errorf("controlByte(%q) = %#x, want %#x", c.key, got, c.want)
		}
	}
}

func TestControlByteUnknown(t *testing.T) {
	if _, err := controlByte("9"); err == nil {
		t.Fatal("controlByte(\"9\") should error, no mapping exists")
	}
}

func TestParseKeyTokenCtrlCombo(t *testing.T) {
	b, err := parseKeyToken("Ctrl+C", false)
	if err != nil {
		t.Fatalf("parseKeyToken: %v", err)
	}
	if !bytes.Equal(b, []byte{0x03}) {
		t.Fatalf("Ctrl+C = %v, want [0x03]", b)
	}
}

func TestParseKeyTokenAltCombo(t *testing.T) {
	b, err := parseKeyToken("Alt+x", false)
	if err != nil {
		t.Fatalf("parseKeyToken: %v", err)
	}
	if !bytes.Equal(b, []byte{0x1b, 'x'}) {
		t.Fatalf("Alt+x = %v, want [0x1b 'x']", b)
	}
}

func TestParseKeyTokenShiftLetter(t *testing.T) {
	b, err := parseKeyToken("Shift+a", false)
	if err != nil {
		t.Fatalf("parseKeyToken: %v", err)
	}
	if !bytes.Equal(b, []byte{'A'}) {
		t.Fatalf("Shift+a = %v, want ['A']", b)
	}
}

func TestParseKeyTokenNamedKeys(t *testing.T) {
	b, err := parseKeyToken("Enter", false)
	if err != nil || !bytes.Equal(b, []byte{'\r'}) {
		t.Fatalf("Enter = %v, %v; want ['\\r'], nil", b, err)
	}
	b, err = parseKeyToken("Tab", false)
	if err != nil || !bytes.Equal(b, []byte{'\t'}) {
		t.Fatalf("Tab = %v, %v; want ['\\t'], nil", b, err)
	}
}

func TestParseKeyTokenArrowsRespectAppCursorMode(t *testing.T) {
	b, err := parseKeyToken("Up", false)
	if err != nil || !bytes.Equal(b, []byte{0x1b, '[', 'A'}) {
		t.Fatalf("Up (normal mode) = %v, %v; want CSI A", b, err)
	}
	b, err = parseKeyToken("Up", true)
	if err != nil || !bytes.Equal(b, []byte{0x1b, 'O', 'A'}) {
		t.Fatalf("Up (app cursor mode) = %v, %v; want SS3 A", b, err)
	}
}

func TestParseKeyTokenUnknownModifier(t *testing.T) {
	if _, err := parseKeyToken("Super+a", false); err == nil {
		t.Fatal("parseKeyToken with unknown modifier should error")
	}
}

func TestParseKeySequenceMultipleTokens(t *testing.T) {
	seqs, err := parseKeySequence("Ctrl+C Enter", false)
	if err != nil {
		t.Fatalf("parseKeySequence: %v", err)
	}
	if len(seqs) != 2 {
		t.Fatalf("want 2 sequences, got %d", len(seqs))
	}
	if !bytes.Equal(seqs[0], []byte{0x03}) || !bytes.Equal(seqs[1], []byte{'\r'}) {
		t.Fatalf("unexpected sequences: %v", seqs)
	}
}

func TestParseKeySequenceEmpty(t *testing.T) {
	if _, err := parseKeySequence("", false); err == nil {
		t.Fatal("parseKeySequence(\"\") should error")
	}
}
