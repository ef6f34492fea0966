package contextkeys

import (
	"context"
	"testing"

	"github.com/eliyaaki/todo-micro-services/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestLoggerFromContext(t *testing.T) {
	assert.NotNil(t, LoggerFromContext(context.Background()))

	rec := logger.NewRecorder()
	ctx := ContextWithLogger(context.Background(), rec)
	LoggerFromContext(ctx).Info("hello", nil)
	assert.Equal(t, []string{"hello"}, rec.Messages())
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Equal(t, "", TraceIDFromContext(context.Background()))
	ctx := ContextWithTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", TraceIDFromContext(ctx))
}
