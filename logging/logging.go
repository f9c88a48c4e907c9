// Package logging builds the structured, colorized loggers shared by the
// server, the MCP bridge and the command-line tools.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Level is a structured log level shared by the server and the tools.
type Level slog.Level

const (
	// LevelDebug adds per-placement and per-client detail.
	LevelDebug Level = Level(slog.LevelDebug)
	// LevelInfo covers session lifecycle, startup and shutdown.
	LevelInfo Level = Level(slog.LevelInfo)
	// LevelWarn reports skipped presets and dropped broadcasts.
	LevelWarn Level = Level(slog.LevelWarn)
	// LevelError is for failures the process keeps running through.
	LevelError Level = Level(slog.LevelError)
)

// Level implements slog.Leveler.
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// String returns the slog name of the level, e.g. "WARN".
func (l Level) String() string {
	return slog.Level(l).String()
}

// ParseLevel converts a textual log level into a Level value.
// Unknown values fall back to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// NewLogger constructs a slog.Logger backed by a tint handler.
func NewLogger(w io.Writer, level Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})

	return slog.New(handler)
}

// Discard returns a logger that drops every record. Tests and library
// callers that do not care about output use it as the default.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
