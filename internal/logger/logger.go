// Package logger wraps logrus with the action-oriented JSON shape the rest of
// the services log in: every line carries service, action and hostname fields.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	entry *logrus.Entry
}

func New(service string) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	l.SetOutput(os.Stdout)
	l.SetLevel(levelFromEnv())
	host, _ := os.Hostname()
	return &Logger{entry: l.WithFields(logrus.Fields{"service": service, "hostname": host})}
}

func levelFromEnv() logrus.Level {
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

func (l *Logger) with(action string, fields map[string]any) *logrus.Entry {
	e := l.entry.WithField("action", action)
	if fields != nil {
		e = e.WithFields(fields)
	}
	return e
}

func (l *Logger) Info(action string, fields map[string]any)  { l.with(action, fields).Info(action) }
func (l *Logger) Debug(action string, fields map[string]any) { l.with(action, fields).Debug(action) }
func (l *Logger) Warn(action string, fields map[string]any)  { l.with(action, fields).Warn(action) }

func (l *Logger) Error(action string, err error, fields map[string]any) {
	e := l.with(action, fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(action)
}
