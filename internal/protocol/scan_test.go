package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestScanFindsFrameEnd(t *testing.T) {
	for _, f := range sampleFrames() {
		data, err := Encode(f)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		var s Scanner
		for i := 0; i < len(data); i++ {
			if _, err := s.Scan(data[:i]); !errors.Is(err, ErrIncomplete) {
				t.Fatalf("prefix %q of %q: expected ErrIncomplete, got %v", data[:i], data, err)
			}
		}
		withTail := append(append([]byte{}, data...), "+next\r\n"...)
		n, err := s.Scan(withTail)
		if err != nil {
			t.Fatalf("scan %q: %v", data, err)
		}
		if n != len(data) {
			t.Fatalf("scan %q returned %d, want %d", data, n, len(data))
		}
	}
}

func TestScanReset(t *testing.T) {
	var s Scanner
	wire := []byte(":1\r\n*2\r\n+a\r\n+b\r\n")
	n, err := s.Scan(wire)
	if err != nil || n != 4 {
		t.Fatalf("first frame: %d %v", n, err)
	}
	s.Reset()
	if n, err := s.Scan(wire[4:]); err != nil || n != len(wire)-4 {
		t.Fatalf("second frame: %d %v", n, err)
	}
}

func TestScanAgreesWithParseOnErrors(t *testing.T) {
	inputs := []string{
		"*1\r\n$-2\r\n",
		"!oops\r\n",
		":abc\r\n",
		"$+3\r\nabc\r\n",
		"$3\r\nabcd\r\n",
		"*2\r\n:1\r\n?\r\n",
		"+hel\nlo\r\n",
		strings.Repeat("*1\r\n", MaxDepth+2) + ":1\r\n",
	}
	for _, in := range inputs {
		var s Scanner
		if _, err := s.Scan([]byte(in)); !errors.Is(err, ErrProtocol) {
			t.Fatalf("scan %q: expected ErrProtocol, got %v", in, err)
		}
		if _, _, err := Parse([]byte(in)); !errors.Is(err, ErrProtocol) {
			t.Fatalf("parse %q: expected ErrProtocol, got %v", in, err)
		}
	}
}
