package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		level      string
		enabled    zapcore.Level
		disabled   zapcore.Level
		wantErr    bool
	}{
		{name: "default level", level: "", enabled: zapcore.WarnLevel, disabled: zapcore.InfoLevel},
		{name: "debug development", level: "debug", enabled: zapcore.DebugLevel, disabled: zapcore.DebugLevel - 1},
		{name: "error production", production: true, level: "error", enabled: zapcore.ErrorLevel, disabled: zapcore.WarnLevel},
		{name: "invalid", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.production, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.disabled))
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck
		assert.NotNil(t, FromContext(nil))
	})

	t.Run("without logger", func(t *testing.T) {
		l := FromContext(context.Background())
		assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("with logger", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		expected := zap.New(core)
		ctx := WithLogger(context.Background(), expected)

		assert.Same(t, expected, FromContext(ctx))

		Info(ctx, "hello", zap.String("k", "v"))
		Debug(ctx, "dropped")
		Warn(ctx, "careful")

		require.Equal(t, 2, logs.Len())
		assert.Equal(t, "hello", logs.All()[0].Message)
		assert.Equal(t, "v", logs.All()[0].ContextMap()["k"])
	})
}
