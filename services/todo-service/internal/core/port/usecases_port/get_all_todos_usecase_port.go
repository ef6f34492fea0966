package usecases_port

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
)

type GetAllTodosUseCasePort interface {
	Execute(ctx context.Context) ([]domain.Todo, error)
}
