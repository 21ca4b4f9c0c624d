// Package log wraps go.uber.org/zap with a small hook mechanism that derives
// extra fields from a context.Context (correlation ids, operation names)
// without every call site having to thread them through explicitly.
package log

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Field is a zap structured-logging field.
type Field = zap.Field

// String, Int, and Any mirror the zap field constructors most call sites
// need; re-exported so packages depend on internal/log rather than zap
// directly.
func String(key, value string) Field { return zap.String(key, value) }
func Int(key string, value int) Field { return zap.Int(key, value) }
func Any(key string, value any) Field { return zap.Any(key, value) }

// Cause wraps an error as a field named "error".
func Cause(err error) Field { return zap.Error(err) }

// Hook derives additional fields from a context before a log line is
// written. Apply returns fields appended to the ones the caller already
// supplied.
type Hook interface {
	Apply(ctx context.Context, msg string, fields ...Field) []Field
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx context.Context, msg string, fields ...Field) []Field

func (f HookFunc) Apply(ctx context.Context, msg string, fields ...Field) []Field {
	return f(ctx, msg, fields...)
}

// Logger wraps a *zap.Logger and a set of hooks run before every call.
type Logger struct {
	mu     sync.RWMutex
	zap    *zap.Logger
	hooks  []Hook
}

var std = New(mustBuild())

func mustBuild() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if os.Getenv("AI_GATEWAY_DEBUG") != "" {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("log: failed to build base logger: " + err.Error())
	}

	return logger
}

// New wraps an existing *zap.Logger.
func New(z *zap.Logger) *Logger {
	return &Logger{zap: z}
}

// AddHook registers a hook run on every subsequent call.
func (l *Logger) AddHook(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

func (l *Logger) withHooks(ctx context.Context, msg string, fields []Field) []Field {
	l.mu.RLock()
	hooks := l.hooks
	l.mu.RUnlock()

	for _, h := range hooks {
		fields = h.Apply(ctx, msg, fields...)
	}

	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zap.Debug(msg, l.withHooks(ctx, msg, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zap.Info(msg, l.withHooks(ctx, msg, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zap.Warn(msg, l.withHooks(ctx, msg, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zap.Error(msg, l.withHooks(ctx, msg, fields)...)
}

// SetDefault replaces the package-level logger used by the free functions
// below. cmd/ai-gateway-agent calls this once at startup.
func SetDefault(l *Logger) { std = l }

func Default() *Logger { return std }

func Debug(ctx context.Context, msg string, fields ...Field) { std.Debug(ctx, msg, fields...) }
func Info(ctx context.Context, msg string, fields ...Field)  { std.Info(ctx, msg, fields...) }
func Warn(ctx context.Context, msg string, fields ...Field)  { std.Warn(ctx, msg, fields...) }
func Error(ctx context.Context, msg string, fields ...Field) { std.Error(ctx, msg, fields...) }
