package internal

import (
	"log/slog"
	"os"
	"strings"
)

// LoggerFromString builds the host logger for a textual level ("DEBUG",
// "INFO", "WARN", "ERROR"); anything unknown falls back to INFO.
func LoggerFromString(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
