package utility

import (
	"context"
	"fmt"

	"github.com/pitabwire/frame"
	"github.com/sirupsen/logrus"
)

// fieldsOf pairs up key value arguments. A trailing key without value is kept as "!BADKEY".
func fieldsOf(keyValues []any) map[string]any {
	fields := make(map[string]any, len(keyValues)/2)
	for i := 0; i < len(keyValues); i += 2 {
		key := fmt.Sprint(keyValues[i])
		if i+1 >= len(keyValues) {
			fields["!BADKEY"] = key
			break
		}
		fields[key] = keyValues[i+1]
	}
	return fields
}

// ServiceLogger writes through the frame service logger so request scoped fields are kept.
type ServiceLogger struct {
	Service *frame.Service
}

func (l *ServiceLogger) Debug(ctx context.Context, msg string, keyValues ...any) {
	entry := l.Service.Log(ctx)
	for k, v := range fieldsOf(keyValues) {
		entry = entry.WithField(k, v)
	}
	entry.Debug(msg)
}

func (l *ServiceLogger) Info(ctx context.Context, msg string, keyValues ...any) {
	entry := l.Service.Log(ctx)
	for k, v := range fieldsOf(keyValues) {
		entry = entry.WithField(k, v)
	}
	entry.Info(msg)
}

func (l *ServiceLogger) Warn(ctx context.Context, err error, msg string, keyValues ...any) {
	entry := l.Service.Log(ctx)
	for k, v := range fieldsOf(keyValues) {
		entry = entry.WithField(k, v)
	}
	entry.WithError(err).Warn(msg)
}

// LogrusLogger is used where no frame service runs, the CLI and tests.
type LogrusLogger struct {
	Entry *logrus.Entry
}

func NewLogrusLogger(logger *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{Entry: logrus.NewEntry(logger)}
}

func (l *LogrusLogger) Debug(ctx context.Context, msg string, keyValues ...any) {
	l.Entry.WithContext(ctx).WithFields(fieldsOf(keyValues)).Debug(msg)
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, keyValues ...any) {
	l.Entry.WithContext(ctx).WithFields(fieldsOf(keyValues)).Info(msg)
}

func (l *LogrusLogger) Warn(ctx context.Context, err error, msg string, keyValues ...any) {
	l.Entry.WithContext(ctx).WithFields(fieldsOf(keyValues)).WithError(err).Warn(msg)
}
