package app

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger on w at debug level when verbose,
// otherwise a logger that drops everything.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose || w == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
