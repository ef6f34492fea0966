package rabbitmq_adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/eliyaaki/todo-micro-services/pkg/rabbitmq/rabbitmq_common"
	"github.com/eliyaaki/todo-micro-services/pkg/rabbitmq/rabbitmq_consumer"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

// TopicHandler processes the body of one message received on a topic.
type TopicHandler func(ctx context.Context, body []byte) error

// NewDeadlineCheckHandler decodes a deadline event and runs the check.
func NewDeadlineCheckHandler(uc usecases_port.CheckDeadlineExpirationUseCasePort) TopicHandler {
	return func(ctx context.Context, body []byte) error {
		event, err := domain.DecodeDeadlineEvent(body)
		if err != nil {
			return err
		}
		return uc.Execute(ctx, event)
	}
}

type ConsumerConfig struct {
	GroupID  string
	ClientID string
}

// DeadlineConsumerAdapter subscribes the consumer group to every
// registered topic. Each topic gets its own queue and is handled in order.
type DeadlineConsumerAdapter struct {
	cfg         ConsumerConfig
	connManager *rabbitmq_common.ConnectionManager
	logger      port.LoggerPort

	mu        sync.RWMutex
	handlers  map[string]TopicHandler
	consumers []*rabbitmq_consumer.OrderedConsumer
}

func NewDeadlineConsumerAdapter(cfg ConsumerConfig, logger port.LoggerPort, connManager *rabbitmq_common.ConnectionManager) (*DeadlineConsumerAdapter, error) {
	if cfg.GroupID == "" {
		return nil, errors.New("deadline consumer: group id is required")
	}
	if connManager == nil {
		return nil, errors.New("deadline consumer: connection manager cannot be nil")
	}
	return &DeadlineConsumerAdapter{
		cfg:         cfg,
		connManager: connManager,
		logger:      logger.WithFields(port.Fields{"component": "DeadlineConsumerAdapter", "group_id": cfg.GroupID}),
		handlers:    make(map[string]TopicHandler),
	}, nil
}

// Register maps a topic to its handler. It must be called before Start.
func (a *DeadlineConsumerAdapter) Register(topic string, handler TopicHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[topic] = handler
}

func (a *DeadlineConsumerAdapter) Topics() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	topics := make([]string, 0, len(a.handlers))
	for topic := range a.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Start subscribes to all registered topics and blocks until ctx is
// cancelled or one subscription fails.
func (a *DeadlineConsumerAdapter) Start(ctx context.Context) error {
	topics := a.Topics()
	if len(topics) == 0 {
		return errors.New("deadline consumer: no topic handlers registered")
	}

	consumers := make([]*rabbitmq_consumer.OrderedConsumer, 0, len(topics))
	for _, topic := range topics {
		consumer, err := a.subscribe(topic)
		if err != nil {
			for _, c := range consumers {
				_ = c.Close()
			}
			return err
		}
		consumers = append(consumers, consumer)
	}

	a.mu.Lock()
	a.consumers = consumers
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, consumer := range consumers {
		g.Go(func() error {
			return consumer.StartConsuming(gctx)
		})
	}
	return g.Wait()
}

func (a *DeadlineConsumerAdapter) subscribe(topic string) (*rabbitmq_consumer.OrderedConsumer, error) {
	queueName := rabbitmq_common.GroupQueueName(a.cfg.GroupID, topic)
	consumerLogger := a.logger.WithFields(port.Fields{
		"component":    "rabbitmq_ordered_consumer",
		"topic":        topic,
		"consumer_tag": a.cfg.ClientID,
	})

	consumer, err := rabbitmq_consumer.NewOrderedConsumer(a.consumerConfig(topic, consumerLogger), a.messageHandler, a.connManager)
	if err != nil {
		return nil, fmt.Errorf("deadline consumer: failed to subscribe to topic '%s': %w", topic, err)
	}

	a.logger.Info("Subscribed to topic", port.Fields{"topic": topic, "queue_name": queueName})
	return consumer, nil
}

// consumerConfig subscribes the group queue of topic. The topic exchange is
// declared again in case startup could not create it.
func (a *DeadlineConsumerAdapter) consumerConfig(topic string, logger port.LoggerPort) rabbitmq_consumer.ConsumerConfig {
	return rabbitmq_consumer.ConsumerConfig{
		QueueName:              rabbitmq_common.GroupQueueName(a.cfg.GroupID, topic),
		DeclareQueue:           true,
		DurableQueue:           true,
		QueueArgs:              rabbitmq_common.SinglePartitionQueueArgs(),
		ExchangeNameForBind:    topic,
		DeclareExchangeForBind: true,
		PrefetchCount:          1,
		ConsumerTag:            a.cfg.ClientID,
		Logger:                 rabbitmq_common.NewLoggerBridge(logger),
	}
}

// messageHandler routes a delivery to the handler of the topic it was
// published on. Empty bodies and unknown topics are acked and skipped.
func (a *DeadlineConsumerAdapter) messageHandler(d amqp.Delivery) error {
	traceID, ok := d.Headers[contextkeys.TraceHeader].(string)
	if !ok || traceID == "" {
		traceID = uuid.New().String()
	}

	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"delivery_tag": d.DeliveryTag,
		"topic":        d.Exchange,
	})

	if len(d.Body) == 0 {
		msgLogger.Debug("Received message with empty body, skipping.", nil)
		return nil
	}

	msgLogger.Info("Consumer received message", port.Fields{"payload": string(d.Body)})

	a.mu.RLock()
	handler, found := a.handlers[d.Exchange]
	a.mu.RUnlock()
	if !found {
		msgLogger.Debug("No handler registered for topic, ignoring.", nil)
		return nil
	}

	ctx := contextkeys.ContextWithTraceID(context.Background(), traceID)
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)

	if err := handler(ctx, d.Body); err != nil {
		msgLogger.Error("Failed to process todo from broker", err, nil)
		return fmt.Errorf("failed to process todo from broker: %w", err)
	}
	return nil
}

func (a *DeadlineConsumerAdapter) Close() error {
	a.mu.RLock()
	consumers := a.consumers
	a.mu.RUnlock()

	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
