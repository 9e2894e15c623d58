// Package vlog is a small leveled logger threaded explicitly through
// verifier.Context, never held in a package-level global.
package vlog

import (
	"fmt"
	"io"
	"os"
)

type Level int

const (
	LevelSilent Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

type Logger struct {
	level Level
	out   io.Writer
}

// NewNop returns a logger that discards everything. Default for the core
// so that tests and library embedders see no output unless they ask.
func NewNop() *Logger {
	return &Logger{level: LevelSilent, out: io.Discard}
}

// NewStderr returns a logger writing to stderr at the given level.
func NewStderr(level Level) *Logger {
	return &Logger{level: level, out: os.Stderr}
}

func New(level Level, out io.Writer) *Logger {
	return &Logger{level: level, out: out}
}

func (l *Logger) log(level Level, prefix, format string, args ...any) {
	if l == nil || level > l.level {
		return
	}
	fmt.Fprintf(l.out, "["+prefix+"] "+format+"\n", args...)
}

func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, "warn", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, "info", format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, "debug", format, args...) }
