package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/flightbridge/pkg/errors"
)

func TestLogFailureLevels(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		level     zapcore.Level
		retryable bool
	}{
		{"connection", errors.New(errors.ErrorTypeConnection, "unavailable"), zapcore.WarnLevel, true},
		{"timeout", errors.New(errors.ErrorTypeTimeout, "deadline"), zapcore.WarnLevel, true},
		{"data", errors.New(errors.ErrorTypeData, "bad vector"), zapcore.ErrorLevel, false},
		{"plain", fmt.Errorf("boom"), zapcore.ErrorLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			logFailure(zap.New(core), "scan failed", tt.err, zap.Int64("rows", 3))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, tt.retryable, fields["retryable"])
			assert.Equal(t, int64(3), fields["rows"])
		})
	}
}
