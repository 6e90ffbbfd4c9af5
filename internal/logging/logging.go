// Package logging builds the *slog.Logger the pipeline uses as its
// warning sink (spec.md §7: stages never return a warning to the
// caller, they call a sink and continue). Grounded on DMRHub's
// internal/cmd/root.go runRoot, which switches on cfg.LogLevel to build
// a tint-backed slog.Logger and installs it with slog.SetDefault.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/ihuguet/picofst/internal/config"
)

// New builds a tint-backed *slog.Logger at the given level. Debug and
// Info go to stdout, Warn and Error to stderr, mirroring DMRHub's split.
func New(level config.LogLevel) *slog.Logger {
	switch level {
	case config.LogLevelDebug:
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelWarn:
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
}

// WarnSink is the warning-reporting collaborator spec.md §7 describes:
// a stage calls it with a short kind tag and a detail message instead of
// returning an error, and keeps processing.
type WarnSink func(kind, detail string)

// NewWarnSink returns a WarnSink that logs through logger at Warn level,
// tagging each record with "kind" so SPEC_FULL.md's per-kind warning
// counters (internal/metrics) can be driven from the same call site.
func NewWarnSink(logger *slog.Logger) WarnSink {
	return func(kind, detail string) {
		logger.Warn(detail, "kind", kind)
	}
}
