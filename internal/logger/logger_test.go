package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewZapLogger(t *testing.T) {
	for _, enc := range []string{"json", "console"} {
		l := NewZapLogger(&ZapLoggerConfig{Encoding: enc, Level: "debug", IsDevelopment: enc == "console"})
		assert.NotNil(t, l)
	}
}

func TestWrapWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core)).With(zap.String("batch_id", "b-1"))

	l.Debug("hidden")
	l.Info("oven started", zap.Int("capacity", 60))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "oven started", entries[0].Message)
		assert.Equal(t, "b-1", entries[0].ContextMap()["batch_id"])
	}
}
