package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config controls the supervisor's own structured logging.
type Config struct {
	Level   string `mapstructure:"level"`    // debug, info, warn, error (default info)
	NoColor bool   `mapstructure:"no_color"` // disable ANSI colors
}

// Setup installs the default slog logger according to c.
func (c Config) Setup() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}
	var h slog.Handler
	if c.NoColor {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = NewColorHandler(os.Stderr, opts)
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
