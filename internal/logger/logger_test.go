package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/handiism/bookdl/internal/logger"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		verbose     bool
		wantDebug   bool
	}{
		{"development quiet", logger.DevelopmentEnvironment, false, false},
		{"development verbose", logger.DevelopmentEnvironment, true, true},
		{"production quiet", logger.ProductionEnvironment, false, false},
		{"production verbose", logger.ProductionEnvironment, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				logger.Setup(tt.environment, tt.verbose)
			})

			ctx := context.Background()
			require.NotNil(t, logger.Get(ctx))
			require.Equal(t, tt.wantDebug, logger.IsDebug(ctx))
		})
	}
}

func TestGetPrefersContextLogger(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment, false)

	custom := zap.NewExample()
	ctx := logger.WithLogger(context.Background(), custom)
	require.Equal(t, custom, logger.Get(ctx))
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	ctx = logger.WithFields(ctx, zap.String("book", "http://x/book1"))
	logger.Warn(ctx, "region missing")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, zapcore.WarnLevel, entry.Level)
	require.Equal(t, "http://x/book1", entry.ContextMap()["book"])
}

func TestLevelsAreDistinguishable(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	levels := make([]zapcore.Level, 0, logs.Len())
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	require.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, levels)
}
