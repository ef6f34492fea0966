package rabbitmq_adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/constants"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is satisfied by *rabbitmq_producer.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// DeadlineQueueAdapter implements DeadlineQueuePort on a topic exchange.
type DeadlineQueueAdapter struct {
	producer Publisher
	topic    string
}

func NewDeadlineQueueAdapter(producer Publisher, topic string) (*DeadlineQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if topic == "" {
		topic = constants.DefaultDeadlineTopic
	}
	return &DeadlineQueueAdapter{producer: producer, topic: topic}, nil
}

func (a *DeadlineQueueAdapter) PublishTodo(ctx context.Context, todo domain.Todo) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component": "DeadlineQueueAdapter",
		"topic":     a.topic,
		"todo_id":   todo.ID.String(),
	})

	body, err := json.Marshal(todo)
	if err != nil {
		adapterLogger.Error("Failed to marshal todo to JSON", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to marshal todo %s: %w", todo.ID, err)
	}

	msg := amqp.Publishing{
		ContentType:  constants.ContentTypeJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers[contextkeys.TraceHeader] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, constants.PublishTimeout)
	defer cancel()

	adapterLogger.Debug("Publishing deadline event", nil)
	if err := a.producer.Publish(publishCtx, "", msg); err != nil {
		adapterLogger.Error("Failed to publish deadline event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish todo %s: %w", todo.ID, err)
	}

	adapterLogger.Debug("Deadline event published", nil)
	return nil
}
