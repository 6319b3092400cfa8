// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package base wraps a logrus.Logger with the leveled convenience
// methods the rest of this daemon calls on every hot path.
package base

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LogObject is the per-package handle every constructor takes instead
// of reaching for a package-global logger.
type LogObject struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewLogObject builds a LogObject around a fresh logrus.Logger writing
// to stderr in text format.
func NewLogObject(agentName string) *LogObject {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	return &LogObject{
		logger: logger,
		fields: logrus.Fields{"agent": agentName},
	}
}

// WithLogger wraps an already-configured logrus.Logger, used by tests
// that want to capture output.
func WithLogger(agentName string, logger *logrus.Logger) *LogObject {
	return &LogObject{logger: logger, fields: logrus.Fields{"agent": agentName}}
}

// SetLevel raises or lowers the underlying logrus level, e.g. for -d.
func (l *LogObject) SetLevel(level logrus.Level) {
	l.logger.SetLevel(level)
}

// With returns a derived LogObject carrying additional structured fields.
func (l *LogObject) With(key string, value interface{}) *LogObject {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &LogObject{logger: l.logger, fields: fields}
}

func (l *LogObject) entry() *logrus.Entry {
	return l.logger.WithFields(l.fields)
}

// Functionf logs at debug level, mirroring tracing of normal control flow.
func (l *LogObject) Functionf(format string, args ...interface{}) {
	l.entry().Debugf(format, args...)
}

// Tracef logs at the most verbose level.
func (l *LogObject) Tracef(format string, args ...interface{}) {
	l.entry().Tracef(format, args...)
}

// Noticef logs a noteworthy but non-error transition.
func (l *LogObject) Noticef(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

// Warnf logs a recoverable anomaly, e.g. an adapter failure (§7).
func (l *LogObject) Warnf(format string, args ...interface{}) {
	l.entry().Warnf(format, args...)
}

// Errorf logs a stable-tagged adapter failure that the caller swallows.
func (l *LogObject) Errorf(format string, args ...interface{}) {
	l.entry().Errorf(format, args...)
}

// Error logs an error value under a stable tag.
func (l *LogObject) Error(args ...interface{}) {
	l.entry().Error(args...)
}

// Fatal logs and terminates the process. Reserved for invariant
// violations per §7 — a bug, not a recoverable condition.
func (l *LogObject) Fatal(args ...interface{}) {
	l.entry().Fatal(args...)
}

// Fatalf is the formatted form of Fatal.
func (l *LogObject) Fatalf(format string, args ...interface{}) {
	l.entry().Fatalf(format, args...)
}
