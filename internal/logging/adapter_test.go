package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	a := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	a.Debug("d", "k", 1)
	a.Info("i")
	a.Warn("w")
	a.Error("e")

	out := buf.String()
	for _, want := range []string{"level=DEBUG msg=d k=1", "level=INFO msg=i", "level=WARN msg=w", "level=ERROR msg=e"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	var l Logger = NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	l.With("request_id", "abc").Info("request")

	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("With() attrs not attached: %s", buf.String())
	}
}

func TestNewSlogAdapter_NilUsesDefault(t *testing.T) {
	a := NewSlogAdapter(nil)
	if a.Slog() != slog.Default() {
		t.Error("NewSlogAdapter(nil) should wrap slog.Default()")
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic and must satisfy Logger.
	var l Logger = Discard()
	l.With("a", 1).Error("dropped")
}
