package utility

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsOf(t *testing.T) {
	fields := fieldsOf([]any{"payment_id", "p-1", "changed", true, "dangling"})
	assert.Equal(t, "p-1", fields["payment_id"])
	assert.Equal(t, true, fields["changed"])
	assert.Equal(t, "dangling", fields["!BADKEY"])
}

func TestLogrusLoggerWritesFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	logger := NewLogrusLogger(base)

	logger.Info(context.Background(), "payment approved", "payment_id", "p-1")
	logger.Warn(context.Background(), errors.New("boom"), "dispatch failed", "kind", "payment.approved")

	require.Len(t, hook.AllEntries(), 2)
	first := hook.AllEntries()[0]
	assert.Equal(t, logrus.InfoLevel, first.Level)
	assert.Equal(t, "p-1", first.Data["payment_id"])

	last := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, "payment.approved", last.Data["kind"])
	assert.EqualError(t, last.Data[logrus.ErrorKey].(error), "boom")
}
