package logx

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Level controls which messages are emitted. The values line up with
// zerolog's levels.
type Level int8

const (
	LevelTrace Level = -1
	LevelDebug Level = 0
	LevelInfo  Level = 1
	LevelWarn  Level = 2
	LevelError Level = 3
)

// Fields is a set of structured log fields.
type Fields map[string]any

var (
	mu     sync.Mutex
	out    io.Writer = os.Stderr
	pretty bool
	logger atomic.Pointer[zerolog.Logger]
)

func init() {
	rebuild()
}

func rebuild() {
	w := out
	if pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	l := zerolog.New(w).With().Timestamp().Logger()
	logger.Store(&l)
}

// SetLevel sets the global minimum level.
func SetLevel(l Level) {
	zerolog.SetGlobalLevel(zerolog.Level(l))
}

// SetPretty switches between human-readable console output and JSON.
func SetPretty(enabled bool) {
	mu.Lock()
	pretty = enabled
	rebuild()
	mu.Unlock()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	rebuild()
	mu.Unlock()
}

// Entry is a log statement under construction.
type Entry struct {
	fields Fields
	err    error
}

// WithFields starts an entry with the given fields.
func WithFields(fields Fields) *Entry {
	e := &Entry{fields: make(Fields, len(fields))}
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// WithField starts an entry with a single field.
func WithField(key string, value any) *Entry {
	return WithFields(Fields{key: value})
}

// WithError starts an entry carrying an error.
func WithError(err error) *Entry {
	return &Entry{err: err}
}

// WithFields merges more fields into the entry.
func (e *Entry) WithFields(fields Fields) *Entry {
	if e.fields == nil {
		e.fields = make(Fields, len(fields))
	}
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// WithField adds a single field to the entry.
func (e *Entry) WithField(key string, value any) *Entry {
	if e.fields == nil {
		e.fields = make(Fields, 1)
	}
	e.fields[key] = value
	return e
}

// WithError attaches an error to the entry.
func (e *Entry) WithError(err error) *Entry {
	e.err = err
	return e
}

func (e *Entry) emit(lvl zerolog.Level, msg string) {
	ev := logger.Load().WithLevel(lvl)
	if len(e.fields) > 0 {
		ev = ev.Fields(map[string]any(e.fields))
	}
	if e.err != nil {
		ev = ev.Err(e.err)
	}
	ev.Msg(msg)
}

func (e *Entry) emitf(lvl zerolog.Level, format string, args ...any) {
	ev := logger.Load().WithLevel(lvl)
	if len(e.fields) > 0 {
		ev = ev.Fields(map[string]any(e.fields))
	}
	if e.err != nil {
		ev = ev.Err(e.err)
	}
	ev.Msgf(format, args...)
}

func (e *Entry) Trace(msg string) { e.emit(zerolog.TraceLevel, msg) }
func (e *Entry) Debug(msg string) { e.emit(zerolog.DebugLevel, msg) }
func (e *Entry) Info(msg string)  { e.emit(zerolog.InfoLevel, msg) }
func (e *Entry) Warn(msg string)  { e.emit(zerolog.WarnLevel, msg) }
func (e *Entry) Error(msg string) { e.emit(zerolog.ErrorLevel, msg) }

func (e *Entry) Tracef(format string, args ...any) { e.emitf(zerolog.TraceLevel, format, args...) }
func (e *Entry) Debugf(format string, args ...any) { e.emitf(zerolog.DebugLevel, format, args...) }
func (e *Entry) Infof(format string, args ...any)  { e.emitf(zerolog.InfoLevel, format, args...) }
func (e *Entry) Warnf(format string, args ...any)  { e.emitf(zerolog.WarnLevel, format, args...) }
func (e *Entry) Errorf(format string, args ...any) { e.emitf(zerolog.ErrorLevel, format, args...) }

// Package-level helpers for entries without fields.

func Trace(msg string) { (&Entry{}).Trace(msg) }
func Debug(msg string) { (&Entry{}).Debug(msg) }
func Info(msg string)  { (&Entry{}).Info(msg) }
func Warn(msg string)  { (&Entry{}).Warn(msg) }
func Error(msg string) { (&Entry{}).Error(msg) }

func Tracef(format string, args ...any) { (&Entry{}).Tracef(format, args...) }
func Debugf(format string, args ...any) { (&Entry{}).Debugf(format, args...) }
func Infof(format string, args ...any)  { (&Entry{}).Infof(format, args...) }
func Warnf(format string, args ...any)  { (&Entry{}).Warnf(format, args...) }
func Errorf(format string, args ...any) { (&Entry{}).Errorf(format, args...) }

// Fatalf logs at fatal level and exits the process.
func Fatalf(format string, args ...any) {
	logger.Load().Fatal().Msgf(format, args...)
}
