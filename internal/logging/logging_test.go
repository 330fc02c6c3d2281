package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cricwidget/gateway/internal/logging"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := logging.New("debug", format)
		require.NoError(t, err, format)
		assert.True(t, logger.Core().Enabled(zap.DebugLevel))
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := logging.New("loud", "json")
	require.Error(t, err)

	_, err = logging.New("info", "xml")
	require.Error(t, err)
}

type ctxKey struct{}

func TestPanicLogger(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	l := &logging.PanicLogger{
		Logger: zap.New(core),
		RequestID: func(ctx context.Context) string {
			id, _ := ctx.Value(ctxKey{}).(string)
			return id
		},
	}

	l.LogPanic(context.WithValue(context.Background(), ctxKey{}, "req-1"), "boom")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "graphql: panic occurred", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "boom", fields["panic"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Contains(t, fields["stack"], "TestPanicLogger")
}
