package config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger builds the console logger. Info and below go to stdout, errors to
// stderr; level none discards everything.
func (c LoggingConfig) Logger() *zap.Logger {
	var min zapcore.Level
	switch c.Level {
	case LogNone:
		return zap.NewNop()
	case LogDebug:
		min = zapcore.DebugLevel
	default:
		min = zapcore.InfoLevel
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(ec)

	low := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return min <= lvl && lvl < zapcore.ErrorLevel
	}))
	high := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	}))
	return zap.New(zapcore.NewTee(low, high))
}
