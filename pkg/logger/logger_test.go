package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := WithQueryID(context.Background(), "q-1")
	ctx = WithSplit(ctx, "grpc+tcp://localhost:1234")
	ctx = context.WithValue(ctx, ConnectorKey, "arrow-flight")

	WithContext(ctx, base).Info("page read")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "q-1", fields["query_id"])
	assert.Equal(t, "grpc+tcp://localhost:1234", fields["split"])
	assert.Equal(t, "arrow-flight", fields["connector"])
}
