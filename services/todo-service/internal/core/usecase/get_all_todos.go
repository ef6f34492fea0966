package usecase

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
)

type GetAllTodosUseCase struct {
	repo port.TodoRepositoryPort
}

func NewGetAllTodosUseCase(repo port.TodoRepositoryPort) *GetAllTodosUseCase {
	return &GetAllTodosUseCase{repo: repo}
}

func (uc *GetAllTodosUseCase) Execute(ctx context.Context) ([]domain.Todo, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "GetAllTodos"})

	todos, err := uc.repo.FindAll(ctx)
	if err != nil {
		logger.Error("Repository failed to list todos", err, nil)
		return nil, err
	}

	logger.Debug("Todos listed", port.Fields{"count": len(todos)})
	return todos, nil
}
