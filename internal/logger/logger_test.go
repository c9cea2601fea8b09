package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/agenthands/purify/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		level zapcore.Level
	}{
		{"json debug", config.LogConfig{Level: "debug", Format: "json"}, zapcore.DebugLevel},
		{"console warn", config.LogConfig{Level: "warn", Format: "console"}, zapcore.WarnLevel},
		{"unknown level falls back to info", config.LogConfig{Level: "loud"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.cfg)
			assert.NotNil(t, log)
			assert.True(t, log.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.level-1))
			}
		})
	}
}
