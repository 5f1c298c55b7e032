package common

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger. File output is rotated by lumberjack.
func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.Output == "file" || cfg.Output == "both" {
		if dir := filepath.Dir(cfg.File); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}
	if cfg.Output != "file" {
		writers = append(writers, os.Stdout)
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	out := io.MultiWriter(writers...)

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
