package port

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
)

// DeadlineQueuePort publishes a snapshot of a todo to the deadline topic.
type DeadlineQueuePort interface {
	PublishTodo(ctx context.Context, todo domain.Todo) error
}
