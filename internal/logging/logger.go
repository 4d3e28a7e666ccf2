// Package logging builds the slog logger shared by the CLI and the service.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the level and output format of the logger.
type Options struct {
	Level  string
	Format string
}

// New creates a logger writing to w, or to stderr when w is nil.
// Format "json" selects the JSON handler; anything else is text.
func New(opts Options, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler).With("service", "warmup")
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
