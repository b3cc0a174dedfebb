package main

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

// newLogger writes human readable logs to stderr so command output on
// stdout stays pipeable.
func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zcfg.EncoderConfig.TimeKey = ""
		zcfg.EncoderConfig.CallerKey = ""
	}
	return zcfg.Build()
}

func withLogger(ctx context.Context, logs *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logs)
}

func logger(ctx context.Context) *zap.Logger {
	if logs, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logs
	}
	return zap.NewNop()
}
