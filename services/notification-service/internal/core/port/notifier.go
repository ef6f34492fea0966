package port

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/domain"
)

// NotifierPort delivers a notification for an expired todo.
type NotifierPort interface {
	Notify(ctx context.Context, event domain.DeadlineEvent) error
}
