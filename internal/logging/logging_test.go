package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"storefront/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("persist failed", "store", "cart")
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "persist failed" || rec["store"] != "cart" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Level: "debug", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("loaded", "key", "cart")
	if !strings.Contains(buf.String(), "key=cart") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(config.Log{Level: "shout"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected level error")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatalf("expected discard logger")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Fatalf("expected passthrough")
	}
}
