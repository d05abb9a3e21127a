package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/PabloGalante/farum-panel/internal/observability"
)

func TestLoggerFromContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	observability.SetLogger(zap.New(core))
	t.Cleanup(func() { observability.SetLogger(nil) })

	ctx := observability.WithRequestID(context.Background(), "req-1")
	ctx = observability.WithTabID(ctx, "tab-7")

	observability.LoggerFromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tab-7", fields["tab_id"])
}

func TestLoggerFromEmptyContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	observability.SetLogger(zap.New(core))
	t.Cleanup(func() { observability.SetLogger(nil) })

	observability.LoggerFromContext(context.Background()).Info("plain")

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].ContextMap())
	assert.Equal(t, "", observability.RequestIDFromContext(context.Background()))
}

func TestSetLoggerNilFallsBackToNop(t *testing.T) {
	observability.SetLogger(nil)
	require.NotNil(t, observability.Logger())
	observability.WithFields(zap.String("k", "v")).Info("discarded")
}
