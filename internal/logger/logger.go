package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts debug, info, warn or error, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes timestamped, leveled lines. Safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// Default writes to stderr so it never interleaves with the report on stdout.
var Default = New(os.Stderr, LevelInfo)

func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{out: out, minLevel: minLevel}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
}

func (l *Logger) log(level Level, component, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	if component != "" {
		_, _ = fmt.Fprintf(l.out, "[%s] [%s] [%s] %s\n", timestamp, level, component, msg)
	} else {
		_, _ = fmt.Fprintf(l.out, "[%s] [%s] %s\n", timestamp, level, msg)
	}
}

func (l *Logger) Debug(component, format string, args ...any) {
	l.log(LevelDebug, component, format, args...)
}

func (l *Logger) Info(component, format string, args ...any) {
	l.log(LevelInfo, component, format, args...)
}

func (l *Logger) Warn(component, format string, args ...any) {
	l.log(LevelWarn, component, format, args...)
}

func (l *Logger) Error(component, format string, args ...any) {
	l.log(LevelError, component, format, args...)
}

// Package-level helpers use Default.

func Debug(component, format string, args ...any) { Default.Debug(component, format, args...) }
func Info(component, format string, args ...any)  { Default.Info(component, format, args...) }
func Warn(component, format string, args ...any)  { Default.Warn(component, format, args...) }
func Error(component, format string, args ...any) { Default.Error(component, format, args...) }
