package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel converts a level name (debug, info, warn or error) to a
// slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return level, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// NewDiagnostics creates the interpreter's diagnostic logger. Records at or
// above level are written as text to terminal, every record is also written
// as JSON to appLog if it isn't nil.
func NewDiagnostics(terminal io.Writer, appLog io.Writer, level slog.Leveler) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(terminal, &slog.HandlerOptions{
			Level: level,
		}),
	}

	if appLog != nil {
		handlers = append(handlers, slog.NewJSONHandler(appLog, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

// NewNopDiagnostics creates a logger that drops everything.
func NewNopDiagnostics() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(100),
	}))
}
