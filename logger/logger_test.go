package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		isDev   bool
		wantErr bool
		enabled zapcore.Level
	}{
		{"production info", "info", false, false, zapcore.InfoLevel},
		{"development debug", "debug", true, false, zapcore.DebugLevel},
		{"production warn", "warn", false, false, zapcore.WarnLevel},
		{"invalid level", "loud", false, true, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.isDev)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, log)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.enabled))
			assert.False(t, log.Core().Enabled(tt.enabled-1))
		})
	}
}
