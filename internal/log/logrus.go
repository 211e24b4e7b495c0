// Package log provides a structured Logger backend on top of logrus,
// carrying component/session/tag fields the console logger only inlines
// as text.
package log

import (
	"github.com/sirupsen/logrus"

	"github.com/iceisfun/goeip/internal"
)

// LogrusLogger adapts a *logrus.Entry to internal.Logger, pre-populated
// with whatever fields With attaches.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds a LogrusLogger writing JSON-formatted lines,
// suitable for a driver's configured log level.
func NewLogrusLogger(level logrus.Level) *LogrusLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(level)
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// With returns a derived logger carrying the given fields on every
// subsequent call, for tagging log lines with component/session/tag
// context without threading it through every call site.
func (l *LogrusLogger) With(fields map[string]any) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithFields(fields)}
}

func (l *LogrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *LogrusLogger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

var _ internal.Logger = (*LogrusLogger)(nil)
