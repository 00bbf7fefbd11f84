// Package tlog is the ambient logger for tablestore, matching the
// teacher's convention of wrapping the standard library log.Logger
// instead of pulling in a structured logging framework.
package tlog

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Level selects which messages reach the underlying writer.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "silent"
	}
}

// ParseLevel maps a config string to a Level, defaulting to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "none":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// Logger is a leveled wrapper around *log.Logger.
type Logger struct {
	base  *log.Logger
	level atomic.Int32
}

// New builds a Logger writing to w with the given minimum level.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{base: log.New(w, "", log.LstdFlags)}
	l.level.Store(int32(level))
	return l
}

// Default returns a Logger writing to os.Stderr at LevelInfo, matching
// the teacher's use of the unconfigured standard logger for ordinary
// diagnostics.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

// SetLevel adjusts the minimum level at runtime.
func (l *Logger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *Logger) enabled(level Level) bool { return level >= Level(l.level.Load()) }

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) {
	if l.enabled(LevelDebug) {
		l.base.Printf("[debug] "+format, args...)
	}
}

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...any) {
	if l.enabled(LevelInfo) {
		l.base.Printf("[info] "+format, args...)
	}
}

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...any) {
	if l.enabled(LevelWarn) {
		l.base.Printf("[warn] "+format, args...)
	}
}

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...any) {
	if l.enabled(LevelError) {
		l.base.Printf("[error] "+format, args...)
	}
}
