package port

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"

	"github.com/google/uuid"
)

type TodoRepositoryPort interface {
	Create(ctx context.Context, todo *domain.Todo) error
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, todoID uuid.UUID) error
	FindByID(ctx context.Context, todoID uuid.UUID) (*domain.Todo, error)
	FindAll(ctx context.Context) ([]domain.Todo, error)
}
