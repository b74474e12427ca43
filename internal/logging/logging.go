// Package logging builds the shared log sink: stderr for the operator plus
// a size-rotated file under the state directory for the record.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/remedy-sh/remedy/internal/config"
)

// Rotation keeps the on-disk log bounded: 5 MB per file, 5 old files.
const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
)

// New returns a logger writing to stderr and the configured log file, plus
// a close function for the file sink. The log file's directory is created
// if needed.
func New(cfg config.MonitorConfig) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
	}

	handler := slog.NewTextHandler(
		io.MultiWriter(os.Stderr, rotator),
		&slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)},
	)

	closeSink := func() { _ = rotator.Close() }
	return slog.New(handler), closeSink, nil
}

// ParseLevel maps the config's log_level string to a slog level. Unknown
// values fall back to info rather than failing startup.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
