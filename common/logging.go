package common

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// nopHandler is a slog.Handler that discards every record. Enabled reports false so callers
// skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// NopLogger returns a logger that silently discards all output.
// Components use it when no logger was supplied through their builder options.
func NopLogger() *slog.Logger {
	return slog.New(nopHandler{})
}

// NewLogger creates a text logger writing to w at the given minimum level.
//
// Parameters:
//   - level: the minimum level that will be emitted
//   - w: the destination writer (typically os.Stderr)
//
// Returns:
//   - *slog.Logger: the configured logger
func NewLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a case-insensitive level name (debug, info, warn, error) to a slog.Level.
// Unknown or empty names map to slog.LevelInfo.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
