// Package uilog appends client-side log messages to a file.
package uilog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"
)

// MaxMessageLen is the longest accepted message, in characters.
const MaxMessageLen = 1_000_000

// ErrMessageTooLong is returned for messages over MaxMessageLen.
var ErrMessageTooLong = errors.New("log message too long")

// Writer appends one line per message to a file.
//
// Thread-safety: Writer is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	f  *os.File
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ui log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ui log: %w", err)
	}
	return &Writer{f: f}, nil
}

// Write appends message and a newline.
func (w *Writer) Write(message string) error {
	if utf8.RuneCountInString(message) > MaxMessageLen {
		return ErrMessageTooLong
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.WriteString(message + "\n"); err != nil {
		return fmt.Errorf("write ui log: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
