package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
)

type CreateTodoUseCase struct {
	repo  port.TodoRepositoryPort
	queue port.DeadlineQueuePort
	now   func() time.Time
}

func NewCreateTodoUseCase(repo port.TodoRepositoryPort, queue port.DeadlineQueuePort) *CreateTodoUseCase {
	return &CreateTodoUseCase{
		repo:  repo,
		queue: queue,
		now:   time.Now,
	}
}

// Execute validates and stores the todo, then publishes it once. A publish
// failure fails the call; the stored row is kept and re-offered on the next
// scheduled tick.
func (uc *CreateTodoUseCase) Execute(ctx context.Context, title, description, deadline string) (*domain.Todo, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "CreateTodo",
		"title":    title,
	})
	ucLogger.Info("Use case started", port.Fields{"deadline": deadline})

	now := uc.now()
	parsed, err := domain.ParseDeadline(deadline, now)
	if err != nil {
		ucLogger.Warn("Deadline rejected", port.Fields{"error": err.Error()})
		return nil, err
	}

	todo := domain.NewTodo(title, description, parsed, now)
	if err := uc.repo.Create(ctx, todo); err != nil {
		ucLogger.Error("Repository failed to create todo", err, nil)
		return nil, err
	}

	ucLogger = ucLogger.WithFields(port.Fields{"todo_id": todo.ID.String()})
	ucLogger.Debug("Todo stored, publishing deadline event", nil)

	if err := uc.queue.PublishTodo(ctx, *todo); err != nil {
		ucLogger.Error("Failed to publish created todo", err, nil)
		return nil, fmt.Errorf("todo %s stored but not published: %w", todo.ID, err)
	}

	ucLogger.Info("Use case finished successfully", nil)
	return todo, nil
}
