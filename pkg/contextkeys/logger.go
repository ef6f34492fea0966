package contextkeys

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/pkg/logger"
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// ContextWithLogger stores the logger in ctx.
func ContextWithLogger(ctx context.Context, l logger.LoggerPort) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// LoggerFromContext returns the stored logger or a no-op one.
func LoggerFromContext(ctx context.Context) logger.LoggerPort {
	if l, ok := ctx.Value(loggerKey).(logger.LoggerPort); ok {
		return l
	}
	return logger.NewNoopLogger()
}
