package notifier

import (
	"context"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
)

// LogNotifier only records that a notification would have been sent.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, event domain.DeadlineEvent) error {
	contextkeys.LoggerFromContext(ctx).Info("Deadline notification sent", port.Fields{
		"component": "LogNotifier",
		"todo_id":   event.ID,
		"title":     event.Title,
		"deadline":  event.Deadline,
	})
	return nil
}
