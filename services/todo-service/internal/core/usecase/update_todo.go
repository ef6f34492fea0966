package usecase

import (
	"context"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/google/uuid"
)

type UpdateTodoUseCase struct {
	repo port.TodoRepositoryPort
	now  func() time.Time
}

func NewUpdateTodoUseCase(repo port.TodoRepositoryPort) *UpdateTodoUseCase {
	return &UpdateTodoUseCase{repo: repo, now: time.Now}
}

// Execute revalidates the deadline and stores the change. Nothing is
// published here; the scheduled re-broadcast carries the new snapshot.
func (uc *UpdateTodoUseCase) Execute(ctx context.Context, todoID uuid.UUID, input usecases_port.UpdateTodoInput) (*domain.Todo, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "UpdateTodo",
		"todo_id":  todoID.String(),
	})
	ucLogger.Info("Use case started", nil)

	now := uc.now()
	deadline, err := domain.ParseDeadline(input.Deadline, now)
	if err != nil {
		ucLogger.Warn("Deadline rejected", port.Fields{"error": err.Error()})
		return nil, err
	}

	todo, err := uc.repo.FindByID(ctx, todoID)
	if err != nil {
		return nil, err
	}

	todo.Apply(domain.TodoPatch{
		Title:       input.Title,
		Description: input.Description,
		Deadline:    deadline,
	}, now)

	if err := uc.repo.Update(ctx, todo); err != nil {
		ucLogger.Error("Repository failed to update todo", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", nil)
	return todo, nil
}
