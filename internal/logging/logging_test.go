package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWritesLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("theme ready", "event", "theme_ready", "theme", "dark")
	out := buf.String()
	for _, want := range []string{"level=debug", "event=theme_ready", "theme=dark", `msg="theme ready"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %q", out, want)
		}
	}
}

func TestNewDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(nil, "chatty"); err == nil {
		t.Fatal("New() expected error for unknown level")
	}
}
