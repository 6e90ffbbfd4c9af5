package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/ihuguet/picofst/internal/config"
	"github.com/ihuguet/picofst/internal/logging"
)

func TestNewReturnsNonNilLoggerForEveryLevel(t *testing.T) {
	levels := []config.LogLevel{config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarn, config.LogLevelError, "bogus"}
	for _, lvl := range levels {
		if l := logging.New(lvl); l == nil {
			t.Errorf("New(%q) returned nil", lvl)
		}
	}
}

func TestWarnSinkLogsKindAndDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sink := logging.NewWarnSink(logger)
	sink("forced-phrase-end", "collected heads exceeded capacity")

	out := buf.String()
	if !strings.Contains(out, "kind=forced-phrase-end") {
		t.Errorf("expected kind attribute in log output, got %q", out)
	}
	if !strings.Contains(out, "collected heads exceeded capacity") {
		t.Errorf("expected detail message in log output, got %q", out)
	}
}
