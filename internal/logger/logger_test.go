package logger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xraph/anvil/internal/logger"
)

// TestNoopLogger ensures noop logger implements interface correctly.
func TestNoopLogger(t *testing.T) {
	noopLog := logger.NewNoopLogger()

	var _ logger.Logger = noopLog

	noopLog.Debug("debug", logger.String("k", "v"))
	noopLog.Info("info")
	noopLog.Warn("warn")
	noopLog.Error("error", logger.Error(errors.New("x")))
	noopLog.Debugf("debug %d", 1)
	noopLog.Infof("info %d", 1)

	assert.Same(t, noopLog, noopLog.With(logger.Int("n", 1)))
	assert.Same(t, noopLog, noopLog.Named("sub"))
	assert.NoError(t, noopLog.Sync())
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core)).Named("anvil").With(logger.String("component", "test"))

	log.Debug("resolved",
		logger.String("key", "*app.Service"),
		logger.Bool("cached", true),
		logger.Duration("took", time.Millisecond),
		logger.Uint64("binding", 7),
	)
	log.Warn("dispose failed", logger.Error(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "resolved", first.Message)
	assert.Equal(t, "anvil", first.LoggerName)
	ctx := first.ContextMap()
	assert.Equal(t, "test", ctx["component"])
	assert.Equal(t, "*app.Service", ctx["key"])
	assert.Equal(t, true, ctx["cached"])
	assert.Equal(t, uint64(7), ctx["binding"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestFromZapNil(t *testing.T) {
	log := logger.FromZap(nil)
	assert.NotPanics(t, func() { log.Info("ignored") })
}

func TestField(t *testing.T) {
	f := logger.String("k", "v")
	assert.Equal(t, "k", f.Key())
	assert.Equal(t, "k", f.ZapField().Key)
}
