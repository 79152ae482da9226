package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "json", &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "addr", "127.0.0.1:1")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "kept" || rec["addr"] != "127.0.0.1:1" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	if _, err := New("chatty", "text", &bytes.Buffer{}); err == nil {
		t.Fatal("expected level error")
	}
	if _, err := New("info", "yaml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected format error")
	}
}
