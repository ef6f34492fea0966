package usecases_port

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/domain"
)

type CheckDeadlineExpirationUseCasePort interface {
	Execute(ctx context.Context, event domain.DeadlineEvent) error
}
