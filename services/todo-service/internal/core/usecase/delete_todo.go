package usecase

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/google/uuid"
)

type DeleteTodoUseCase struct {
	repo port.TodoRepositoryPort
}

func NewDeleteTodoUseCase(repo port.TodoRepositoryPort) *DeleteTodoUseCase {
	return &DeleteTodoUseCase{repo: repo}
}

func (uc *DeleteTodoUseCase) Execute(ctx context.Context, todoID uuid.UUID) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "DeleteTodo",
		"todo_id":  todoID.String(),
	})

	if err := uc.repo.Delete(ctx, todoID); err != nil {
		logger.Error("Repository failed to delete todo", err, nil)
		return err
	}

	logger.Info("Todo deleted", nil)
	return nil
}
