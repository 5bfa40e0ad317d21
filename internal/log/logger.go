// SPDX-License-Identifier: MIT

// Package log is a small leveled logger. The level is global and atomic so
// it can be changed from config or flags while goroutines are logging.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

var currentLevel atomic.Uint32

// output is swapped as a whole so SetOutput is safe while logging.
var output atomic.Pointer[stdlog.Logger]

func init() {
	SetLevel(LevelInfo)
	SetOutput(os.Stderr)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// SetOutput redirects all loggers to w. The terminal UI points this at a file
// so log lines do not tear the screen.
func SetOutput(w io.Writer) {
	output.Store(stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds))
}

func shouldLog(level LogLevel) bool {
	return level >= GetLevel()
}

func emit(level LogLevel, component, msg string) {
	// Pad INFO/WARN so messages line up with the five letter levels.
	pad := ""
	if len(level.String()) == 4 {
		pad = " "
	}
	if component == "" {
		output.Load().Printf("[%s]%s %s", level, pad, msg)
		return
	}
	output.Load().Printf("[%s]%s %s: %s", level, pad, component, msg)
}

// --- Component loggers ---

// Logger prefixes every message with a component name. The zero value logs
// without a prefix.
type Logger struct {
	component string
}

// Named returns a Logger for the given component, e.g. Named("pipeline").
func Named(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Debugf(format string, v ...any) {
	if shouldLog(LevelDebug) {
		emit(LevelDebug, l.component, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Infof(format string, v ...any) {
	if shouldLog(LevelInfo) {
		emit(LevelInfo, l.component, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Warnf(format string, v ...any) {
	if shouldLog(LevelWarn) {
		emit(LevelWarn, l.component, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Errorf(format string, v ...any) {
	if shouldLog(LevelError) {
		emit(LevelError, l.component, fmt.Sprintf(format, v...))
	}
}

// --- Package-level functions ---

var root = &Logger{}

func Debugf(format string, v ...any) { root.Debugf(format, v...) }
func Infof(format string, v ...any)  { root.Infof(format, v...) }
func Warnf(format string, v ...any)  { root.Warnf(format, v...) }
func Errorf(format string, v ...any) { root.Errorf(format, v...) }

// Fatalf logs regardless of level and exits the process.
func Fatalf(format string, v ...any) {
	emit(LevelFatal, "", fmt.Sprintf(format, v...))
	os.Exit(1)
}
