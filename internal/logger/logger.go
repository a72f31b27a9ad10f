// Package logger provides the zap-backed logger shared by the appliance.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Open builds a logger writing to path, or to stderr when path is empty.
// The returned close func releases the log file.
func Open(level, path string) (*Logger, func() error, error) {
	if path == "" {
		return New(level, os.Stderr), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(level, f), f.Close, nil
}

// New returns a console logger at the given level writing to w.
func New(level string, w io.Writer) *Logger {
	return newZapLogger(level, w)
}
