package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/eliyaaki/todo-micro-services/pkg/deadline"
)

// CheckDeadlineExpirationUseCase decides whether a received todo is past
// its deadline and notifies once per expired event.
type CheckDeadlineExpirationUseCase struct {
	notifier port.NotifierPort
	clock    port.ClockPort
}

func NewCheckDeadlineExpirationUseCase(notifier port.NotifierPort, clock port.ClockPort) (*CheckDeadlineExpirationUseCase, error) {
	if notifier == nil {
		return nil, errors.New("check deadline expiration: notifier cannot be nil")
	}
	if clock == nil {
		return nil, errors.New("check deadline expiration: clock cannot be nil")
	}
	return &CheckDeadlineExpirationUseCase{notifier: notifier, clock: clock}, nil
}

func (uc *CheckDeadlineExpirationUseCase) Execute(ctx context.Context, event domain.DeadlineEvent) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "CheckDeadlineExpiration",
		"todo_id":  event.ID,
	})

	due, err := event.DeadlineTime()
	if err != nil {
		logger.Error("Failed to parse todo deadline", err, port.Fields{"deadline": event.Deadline})
		return fmt.Errorf("todo '%s': %w", event.Title, err)
	}

	if !deadline.IsExpired(due, uc.clock.Now()) {
		logger.Info(fmt.Sprintf("Todo '%s' is not expired", event.Title), nil)
		return nil
	}

	logger.Info(fmt.Sprintf("Todo '%s' is expired", event.Title), nil)
	if err := uc.notifier.Notify(ctx, event); err != nil {
		logger.Error("Failed to send deadline notification", err, nil)
		return fmt.Errorf("failed to notify for todo '%s': %w", event.Title, err)
	}
	return nil
}
