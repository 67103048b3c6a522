// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logs implements a small leveled logging backend: a Backend fans
// every log line out to one or more BackendWriters (each gated to the
// levels it wants), and hands out a named Logger per subsystem that
// filters against its own independently-settable level before formatting.
package logs

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// Level is a logging severity, ordered so that a Logger only emits a line
// when its own level is at or below the line's level.
type Level uint32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelStrings = map[Level]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

func (l Level) String() string {
	if s, ok := levelStrings[l]; ok {
		return s
	}
	return "UNK"
}

// LevelFromString maps a user-facing level name ("trace", "debug", "info",
// "warn", "error", "critical", "off") to a Level.
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "off":
		return LevelOff, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// BackendWriter pairs an io.Writer with the minimum level it accepts; a
// Backend holds a set of these and routes each formatted line to every
// writer whose minimum level it satisfies.
type BackendWriter struct {
	w        io.Writer
	minLevel Level
}

// NewBackendWriter returns a writer that accepts lines at or above minLevel.
func NewBackendWriter(w io.Writer, minLevel Level) *BackendWriter {
	return &BackendWriter{w: w, minLevel: minLevel}
}

// NewAllLevelsBackendWriter returns a writer that accepts every line
// regardless of level.
func NewAllLevelsBackendWriter(w io.Writer) *BackendWriter {
	return NewBackendWriter(w, LevelTrace)
}

// NewErrorBackendWriter returns a writer that accepts only LevelError and
// above.
func NewErrorBackendWriter(w io.Writer) *BackendWriter {
	return NewBackendWriter(w, LevelError)
}

// Backend is the shared fan-out point for every subsystem Logger it hands
// out: one formatted line, written once per matching BackendWriter.
type Backend struct {
	writers []*BackendWriter
}

// NewBackend constructs a Backend over the given writers.
func NewBackend(writers []*BackendWriter) *Backend {
	return &Backend{writers: writers}
}

// Logger returns a named subsystem logger backed by this Backend,
// defaulting to LevelInfo.
func (b *Backend) Logger(subsystemTag string) Logger {
	l := &logger{backend: b, tag: subsystemTag}
	l.level.Store(uint32(LevelInfo))
	return l
}

// Close releases every writer that implements io.Closer.
func (b *Backend) Close() error {
	var firstErr error
	for _, w := range b.writers {
		if closer, ok := w.w.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *Backend) write(level Level, line string) {
	for _, w := range b.writers {
		if level >= w.minLevel {
			fmt.Fprint(w.w, line)
		}
	}
}

// Logger is a named, independently-leveled front end onto a Backend. Every
// formatting method is a no-op below the logger's current level.
type Logger interface {
	Trace(args ...interface{})
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	// Level returns the logger's current minimum emitted level.
	Level() Level

	// SetLevel changes the logger's minimum emitted level.
	SetLevel(level Level)

	// Backend returns the Backend this logger writes through, so a
	// caller can flush/close it on shutdown.
	Backend() *Backend
}

type logger struct {
	backend *Backend
	tag     string
	level   atomic.Uint32
}

func (l *logger) Level() Level      { return Level(l.level.Load()) }
func (l *logger) SetLevel(lv Level) { l.level.Store(uint32(lv)) }
func (l *logger) Backend() *Backend { return l.backend }

func (l *logger) log(level Level, msg string) {
	if level < l.Level() {
		return
	}
	line := fmt.Sprintf("%s [%s] %s %s\n", time.Now().Format("2006-01-02 15:04:05.000"), level, l.tag, msg)
	l.backend.write(level, line)
}

func (l *logger) Trace(args ...interface{})  { l.log(LevelTrace, fmt.Sprint(args...)) }
func (l *logger) Tracef(format string, args ...interface{}) {
	l.log(LevelTrace, fmt.Sprintf(format, args...))
}
func (l *logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}
func (l *logger) Info(args ...interface{}) { l.log(LevelInfo, fmt.Sprint(args...)) }
func (l *logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}
func (l *logger) Warn(args ...interface{}) { l.log(LevelWarn, fmt.Sprint(args...)) }
func (l *logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}
func (l *logger) Error(args ...interface{}) { l.log(LevelError, fmt.Sprint(args...)) }
func (l *logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}
func (l *logger) Criticalf(format string, args ...interface{}) {
	l.log(LevelCritical, fmt.Sprintf(format, args...))
}
