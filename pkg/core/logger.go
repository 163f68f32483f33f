// Package core holds shared plumbing used across the pipeline and
// stores, currently the leveled Logger and its stock implementations.
package core

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger is the printf-style leveled logger the pipeline writes to.
// Anything with these four methods can be plugged in.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// LogLevel is the threshold below which messages are dropped.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelSilent suppresses all output, including errors.
	LogLevelSilent
)

// DefaultLogger writes "[prefix] [LEVEL] message" lines to stderr via
// the standard log package.
type DefaultLogger struct {
	level  LogLevel
	prefix string
	logger *log.Logger
}

// NewDefaultLogger returns a stderr logger with the given prefix and
// minimum level.
func NewDefaultLogger(prefix string, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		prefix: prefix,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetOutput redirects log output, useful in tests.
func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// SetLevel changes the minimum level for subsequent messages.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *DefaultLogger) Debug(format string, args ...any) {
	if l.level <= LogLevelDebug {
		l.log("DEBUG", format, args...)
	}
}

func (l *DefaultLogger) Info(format string, args ...any) {
	if l.level <= LogLevelInfo {
		l.log("INFO", format, args...)
	}
}

func (l *DefaultLogger) Warn(format string, args ...any) {
	if l.level <= LogLevelWarn {
		l.log("WARN", format, args...)
	}
}

func (l *DefaultLogger) Error(format string, args ...any) {
	if l.level <= LogLevelError {
		l.log("ERROR", format, args...)
	}
}

func (l *DefaultLogger) log(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		l.logger.Printf("[%s] [%s] %s", l.prefix, level, msg)
	} else {
		l.logger.Printf("[%s] %s", level, msg)
	}
}

// NopLogger discards everything. It is the default when a caller does
// not configure logging.
type NopLogger struct{}

func (l *NopLogger) Debug(format string, args ...any) {}
func (l *NopLogger) Info(format string, args ...any)  {}
func (l *NopLogger) Warn(format string, args ...any)  {}
func (l *NopLogger) Error(format string, args ...any) {}
