// Package logger wraps zap behind package-level helpers so the rest of the
// application can log without carrying a logger through every call chain.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLog starts as a no-op logger so library code and tests can log safely
// before Init runs.
var zapLog = zap.NewNop()

// Init replaces the no-op logger with a console logger at the given level.
func Init(level zapcore.Level) error {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.StacktraceKey = ""
	config.EncoderConfig = encoderConfig

	log, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	zapLog = log
	return nil
}

func Debug(message string, fields ...zap.Field) {
	zapLog.Debug(message, fields...)
}

func Info(message string, fields ...zap.Field) {
	zapLog.Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	zapLog.Warn(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	zapLog.Error(message, fields...)
}

func Fatal(message string, fields ...zap.Field) {
	zapLog.Fatal(message, fields...)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return zapLog.Sync()
}
