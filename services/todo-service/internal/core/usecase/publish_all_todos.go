package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"golang.org/x/sync/errgroup"
)

// PublishAllTodosUseCase re-offers every stored todo to the deadline topic.
type PublishAllTodosUseCase struct {
	repo        port.TodoRepositoryPort
	queue       port.DeadlineQueuePort
	concurrency int
}

func NewPublishAllTodosUseCase(repo port.TodoRepositoryPort, queue port.DeadlineQueuePort, concurrency int) *PublishAllTodosUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PublishAllTodosUseCase{
		repo:        repo,
		queue:       queue,
		concurrency: concurrency,
	}
}

// Execute fails only when the store cannot be read. Each todo is published
// independently; failures are logged and collected in the report.
func (uc *PublishAllTodosUseCase) Execute(ctx context.Context) (usecases_port.PublishReport, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "PublishAllTodos"})

	todos, err := uc.repo.FindAll(ctx)
	if err != nil {
		ucLogger.Error("Failed to read todos, skipping tick", err, nil)
		return usecases_port.PublishReport{}, fmt.Errorf("failed to read todos: %w", err)
	}

	report := usecases_port.PublishReport{Total: len(todos)}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(uc.concurrency)
	for _, todo := range todos {
		g.Go(func() error {
			err := uc.publishOne(ctx, todo)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, err)
				return nil
			}
			report.Published++
			return nil
		})
	}
	_ = g.Wait()

	ucLogger.Info("Tick finished", port.Fields{
		"total":     report.Total,
		"published": report.Published,
		"failed":    report.Failed,
	})
	return report, nil
}

func (uc *PublishAllTodosUseCase) publishOne(ctx context.Context, todo domain.Todo) error {
	if err := uc.queue.PublishTodo(ctx, todo); err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to publish todo", err, port.Fields{
			"use_case": "PublishAllTodos",
			"todo_id":  todo.ID.String(),
		})
		return fmt.Errorf("todo %s: %w", todo.ID, err)
	}
	return nil
}
