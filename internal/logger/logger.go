package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup returns a JSON logger in production and a text logger otherwise.
func Setup(w io.Writer, production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SetupDefault installs the logger as the slog default. A nil writer means stdout.
func SetupDefault(w io.Writer, production bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, production)
	slog.SetDefault(l)
	return l
}
