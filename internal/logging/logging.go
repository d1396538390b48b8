// Package logging builds the process loggers.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

const flags = log.LstdFlags | log.Lmicroseconds

// New returns a logger writing to w with the given component prefix
func New(w io.Writer, component string) *log.Logger {
	return log.New(w, "["+component+"] ", flags)
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// OpenFile opens path for appending, creating it and its directory.
// The TUI logs here because it owns the terminal.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
