package usecases_port

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"

	"github.com/google/uuid"
)

// UpdateTodoInput mirrors the update request. Deadline is required.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Deadline    string
}

type UpdateTodoUseCasePort interface {
	Execute(ctx context.Context, todoID uuid.UUID, input UpdateTodoInput) (*domain.Todo, error)
}
