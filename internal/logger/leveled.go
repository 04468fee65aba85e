package logger

import (
	"context"

	"go.uber.org/zap/zapcore"
)

// Debug logs args at debug level with the logger of ctx.
func Debug(ctx context.Context, args ...any) {
	FromContext(ctx).Log(zapcore.DebugLevel, args...)
}

// Info logs args at info level with the logger of ctx.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Log(zapcore.InfoLevel, args...)
}

// Warn logs args at warn level with the logger of ctx.
func Warn(ctx context.Context, args ...any) {
	FromContext(ctx).Log(zapcore.WarnLevel, args...)
}

// Error logs args at error level with the logger of ctx.
func Error(ctx context.Context, args ...any) {
	FromContext(ctx).Log(zapcore.ErrorLevel, args...)
}

// DebugKV logs message and key-value pairs at debug level.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Logw(zapcore.DebugLevel, message, kvs...)
}

// InfoKV logs message and key-value pairs at info level.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Logw(zapcore.InfoLevel, message, kvs...)
}

// WarnKV logs message and key-value pairs at warn level.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Logw(zapcore.WarnLevel, message, kvs...)
}

// ErrorKV logs message and key-value pairs at error level.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Logw(zapcore.ErrorLevel, message, kvs...)
}
