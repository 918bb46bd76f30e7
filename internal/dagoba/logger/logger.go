// Package logger builds the structured loggers used across dagoba.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/natefinch/lumberjack"
)

// Config describes where log records go and how they look.
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // empty means stderr

	MaxSize    int `yaml:"max_size"` // megabytes
	MaxAge     int `yaml:"max_age"`  // days
	MaxBackups int `yaml:"max_backups"`
}

// New creates a logger from c. When c names a file, output is rotated by
// lumberjack and the returned closer releases it; otherwise the closer is
// a no-op.
func New(c Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if c.File != "" {
		l := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
			MaxBackups: c.MaxBackups,
		}
		w, closer = l, l
	}

	logger, err := NewWithWriter(w, c.Format, level)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return logger, closer, nil
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format: %s", format)
}

// ParseLevel maps a level name to a slog level. The empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level: %s", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.New(slog.DiscardHandler))
}

// Default returns the package logger. It discards everything until
// SetLogger is called.
func Default() *slog.Logger {
	return defaultLogger.Load()
}

// SetLogger sets the package logger
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	defaultLogger.Store(l)
}
