package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/use-agent/modelscout/config"
)

// LevelSuccess sits between INFO and WARN and marks completed milestones,
// such as a file written.
const LevelSuccess = slog.Level(2)

// Init configures the default slog logger on stdout.
func Init(cfg config.LogConfig) {
	slog.SetDefault(New(os.Stdout, cfg))
}

// New builds a logger writing to w according to cfg.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: renameLevels,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to an slog.Level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "success":
		return LevelSuccess
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Success logs at LevelSuccess on the default logger.
func Success(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelSuccess, msg, args...)
}

func renameLevels(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelSuccess {
		a.Value = slog.StringValue("SUCCESS")
	}
	return a
}
