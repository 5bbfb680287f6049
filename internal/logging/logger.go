// Package logging wraps charmbracelet/log with the process-wide logger used by every gestos component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures the global logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives log output instead of stderr.
	File string
	// Output overrides both File and stderr. Used by tests.
	Output io.Writer
}

var (
	mu      sync.RWMutex
	logger  = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: time.RFC3339})
	logFile *os.File
)

// Init builds the global logger from opts. It may be called more than once;
// a previously opened log file is closed.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	out := opts.Output
	var file *os.File
	if out == nil && opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
	}
	if out == nil {
		out = os.Stderr
	}

	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})

	mu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logger = l
	logFile = file
	mu.Unlock()
	return nil
}

// ParseLevel converts a level name into a log.Level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Close flushes and closes the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Logger returns the global logger.
func Logger() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithPrefix returns a component logger.
func WithPrefix(prefix string) *log.Logger {
	return Logger().WithPrefix(prefix)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) { Logger().Debug(msg, keyvals...) }

// Info logs an info message
func Info(msg string, keyvals ...interface{}) { Logger().Info(msg, keyvals...) }

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) { Logger().Warn(msg, keyvals...) }

// Error logs an error message
func Error(msg string, keyvals ...interface{}) { Logger().Error(msg, keyvals...) }
