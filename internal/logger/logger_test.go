package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/ventas/internal/config"
)

func TestBuild(t *testing.T) {
	testCases := []struct {
		name     string
		obs      config.Observability
		minLevel zapcore.Level
	}{
		{name: "json debug", obs: config.Observability{LogLevel: "debug", LogEncoding: "json"}, minLevel: zapcore.DebugLevel},
		{name: "console warn", obs: config.Observability{LogLevel: "WARN", LogEncoding: "console"}, minLevel: zapcore.WarnLevel},
		{name: "unknown level falls back to info", obs: config.Observability{LogLevel: "loud", LogEncoding: "json"}, minLevel: zapcore.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := Build(tc.obs)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tc.minLevel))
			if tc.minLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tc.minLevel-1))
			}
		})
	}
}
