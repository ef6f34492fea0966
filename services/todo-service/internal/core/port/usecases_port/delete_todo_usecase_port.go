package usecases_port

import (
	"context"

	"github.com/google/uuid"
)

type DeleteTodoUseCasePort interface {
	Execute(ctx context.Context, todoID uuid.UUID) error
}
