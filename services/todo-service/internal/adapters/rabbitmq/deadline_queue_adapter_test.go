package rabbitmq_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	routingKeys []string
	messages    []amqp.Publishing
	hadDeadline bool
	err         error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	_, p.hadDeadline = ctx.Deadline()
	p.routingKeys = append(p.routingKeys, routingKey)
	p.messages = append(p.messages, msg)
	return p.err
}

func TestNewDeadlineQueueAdapter(t *testing.T) {
	_, err := NewDeadlineQueueAdapter(nil, "topic")
	assert.Error(t, err)

	a, err := NewDeadlineQueueAdapter(&recordingPublisher{}, "")
	require.NoError(t, err)
	assert.Equal(t, "todo-deadline-checking", a.topic)
}

func TestPublishTodo_RoundTrip(t *testing.T) {
	pub := &recordingPublisher{}
	a, err := NewDeadlineQueueAdapter(pub, "todo-deadline-checking")
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	todo := *domain.NewTodo("Pay rent", "monthly", now.Add(24*time.Hour), now)
	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")

	require.NoError(t, a.PublishTodo(ctx, todo))
	require.Len(t, pub.messages, 1)

	msg := pub.messages[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "trace-1", msg.Headers["x-trace-id"])
	assert.Equal(t, "", pub.routingKeys[0])
	assert.True(t, pub.hadDeadline)

	var decoded domain.Todo
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, todo, decoded)
}

func TestPublishTodo_WrapsPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	a, err := NewDeadlineQueueAdapter(pub, "t")
	require.NoError(t, err)

	err = a.PublishTodo(context.Background(), domain.Todo{})
	assert.ErrorContains(t, err, "channel closed")
	assert.NotContains(t, pub.messages[0].Headers, "x-trace-id")
}
