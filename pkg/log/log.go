// Package log provides a context-aware logging entry built on logrus. A
// request-scoped entry can be stashed in a context with Set and recovered
// with Ctx, so handlers and downstream code log with the request's fields
// (correlation id, tenant) without threading a logger through every call.
package log

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// F is shorthand for a set of structured fields.
type F map[string]interface{}

// Level aliases so callers do not need to import logrus directly.
const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

// Entry is the logging type of this package. It embeds a logrus entry, so
// the full Debugf/Infof/Warnf/Errorf/Fatalf surface is available.
type Entry struct {
	*logrus.Entry
}

// DefaultLogger is the logger used by the package-level helpers and by
// Ctx when no entry was set on the context.
var DefaultLogger = New()

// New returns a new Entry backed by a fresh logrus logger at Info level.
func New() *Entry {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return &Entry{Entry: logrus.NewEntry(l)}
}

type contextKey struct{}

// Set stores the entry on the context.
func Set(ctx context.Context, e *Entry) context.Context {
	return context.WithValue(ctx, contextKey{}, e)
}

// Ctx returns the entry bound to the context, or DefaultLogger when none
// was bound.
func Ctx(ctx context.Context) *Entry {
	if e, ok := ctx.Value(contextKey{}).(*Entry); ok {
		return e
	}
	return DefaultLogger
}

// WithField returns a copy of the entry with the field added.
func (e *Entry) WithField(key string, value interface{}) *Entry {
	return &Entry{Entry: e.Entry.WithField(key, value)}
}

// WithFields returns a copy of the entry with the fields added.
func (e *Entry) WithFields(fields F) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a copy of the entry with the error attached.
func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// SetLevel adjusts the level of the underlying logger.
func (e *Entry) SetLevel(level logrus.Level) {
	e.Logger.SetLevel(level)
}

// SetOutput redirects the underlying logger's output.
func (e *Entry) SetOutput(w io.Writer) {
	e.Logger.SetOutput(w)
}

// Level reports the level of the underlying logger.
func (e *Entry) Level() logrus.Level {
	return e.Logger.GetLevel()
}

// StartTest shifts the logger into capture mode: output is discarded and
// every entry at or above the given level is recorded. The returned function
// ends the capture, restores the logger, and returns the recorded entries.
func (e *Entry) StartTest(level logrus.Level) func() []logrus.Entry {
	hook := test.NewLocal(e.Logger)
	prevOut := e.Logger.Out
	prevLevel := e.Logger.GetLevel()
	e.Logger.SetOutput(io.Discard)
	e.Logger.SetLevel(level)

	return func() []logrus.Entry {
		e.Logger.ReplaceHooks(make(logrus.LevelHooks))
		e.Logger.SetOutput(prevOut)
		e.Logger.SetLevel(prevLevel)

		entries := make([]logrus.Entry, 0, len(hook.AllEntries()))
		for _, entry := range hook.AllEntries() {
			entries = append(entries, *entry)
		}
		return entries
	}
}

func Debug(args ...interface{})                 { DefaultLogger.Debug(args...) }
func Debugf(format string, args ...interface{}) { DefaultLogger.Debugf(format, args...) }
func Info(args ...interface{})                  { DefaultLogger.Info(args...) }
func Infof(format string, args ...interface{})  { DefaultLogger.Infof(format, args...) }
func Warn(args ...interface{})                  { DefaultLogger.Warn(args...) }
func Warnf(format string, args ...interface{})  { DefaultLogger.Warnf(format, args...) }
func Error(args ...interface{})                 { DefaultLogger.Error(args...) }
func Errorf(format string, args ...interface{}) { DefaultLogger.Errorf(format, args...) }
func Fatal(args ...interface{})                 { DefaultLogger.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { DefaultLogger.Fatalf(format, args...) }
