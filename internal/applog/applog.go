// Package applog configures the process-wide structured logger.
//
// By default logs go to stderr as text at info level, matching a CLI
// tool's "just works" expectations. CODEX_LOG_FORMAT=json switches to
// JSON (useful when the CLI is invoked by another tool), and
// CODEX_LOG_LEVEL sets the minimum level.
package applog

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the process-wide slog default logger and returns it.
func Setup(debug bool) *slog.Logger {
	level := levelFromEnv(debug)

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(os.Getenv("CODEX_LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func levelFromEnv(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("CODEX_LOG_LEVEL")) {
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
