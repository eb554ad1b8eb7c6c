// Package trace collects the solver's hierarchically indented decision log.
// It is a side channel for debugging: a disabled logger discards everything
// and must not affect search outcomes.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Logger buffers indented trace lines in memory until flushed to a file.
type Logger struct {
	name    string
	enabled bool
	indent  int
	lines   []string
}

// New returns a logger that records when enabled is true and discards
// otherwise.
func New(name string, enabled bool) *Logger {
	return &Logger{name: name, enabled: enabled}
}

// Logf records one formatted line at the current indent level.
func (l *Logger) Logf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.lines = append(l.lines, strings.Repeat("  ", l.indent)+fmt.Sprintf(format, args...))
}

// Push increases the indentation for nested sections.
func (l *Logger) Push() {
	l.indent++
}

// Pop decreases the indentation.
func (l *Logger) Pop() {
	if l.indent > 0 {
		l.indent--
	}
}

// Lines returns the buffered trace.
func (l *Logger) Lines() []string { return l.lines }

// Reset drops everything buffered so far.
func (l *Logger) Reset() { l.lines = nil }

// WriteFile writes the buffered trace to <name>.txt under dir, creating
// parent directories as needed. Disabled loggers write nothing.
func (l *Logger) WriteFile(dir string) error {
	if !l.enabled {
		return nil
	}
	path := filepath.Join(dir, l.name+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(l.lines, "\n")+"\n"), 0o644)
}
