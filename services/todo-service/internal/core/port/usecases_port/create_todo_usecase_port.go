package usecases_port

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
)

type CreateTodoUseCasePort interface {
	Execute(ctx context.Context, title, description, deadline string) (*domain.Todo, error)
}
