package cli

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger for diagnostics. Without debug it
// discards everything so callers can log unconditionally.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
