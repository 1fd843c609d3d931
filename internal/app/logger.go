package app

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger is the logging capability handed to the core components.
// It is always passed explicitly; no package holds a process-wide instance.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Level controls which messages a stderrLogger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a configuration string to a Level.
// Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// stderrLogger writes leveled, prefixed lines to a writer.
type stderrLogger struct {
	output io.Writer
	level  Level
}

// NewLogger returns a Logger writing to stderr at the given level.
func NewLogger(level Level) Logger {
	return &stderrLogger{output: os.Stderr, level: level}
}

// NewLoggerWithWriter returns a Logger writing to the given writer.
// Used by tests to capture output.
func NewLoggerWithWriter(w io.Writer, level Level) Logger {
	return &stderrLogger{output: w, level: level}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return &stderrLogger{output: io.Discard, level: LevelError + 1}
}

func (l *stderrLogger) Debug(format string, args ...interface{}) {
	l.printf(LevelDebug, "DEBUG", format, args...)
}

func (l *stderrLogger) Info(format string, args ...interface{}) {
	l.printf(LevelInfo, "INFO", format, args...)
}

func (l *stderrLogger) Warn(format string, args ...interface{}) {
	l.printf(LevelWarn, "WARN", format, args...)
}

func (l *stderrLogger) Error(format string, args ...interface{}) {
	l.printf(LevelError, "ERROR", format, args...)
}

func (l *stderrLogger) printf(level Level, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprintf(l.output, "%s: %s", tag, msg)
}
