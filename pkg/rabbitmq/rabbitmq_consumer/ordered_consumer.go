package rabbitmq_consumer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/eliyaaki/todo-micro-services/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler processes one delivery. The consumer acks on nil and
// nacks without requeue on error.
type MessageHandler func(delivery amqp.Delivery) error

// State is the lifecycle position of an OrderedConsumer.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrDeliveriesClosed is returned when the broker stops the delivery stream
// while the consumer is running.
var ErrDeliveriesClosed = errors.New("deliveries channel closed by broker")

// OrderedConsumer handles deliveries one at a time in arrival order. The
// next delivery is taken only after the handler for the previous one has
// returned and the delivery was acked or nacked.
type OrderedConsumer struct {
	baseConsumer *baseConsumer
	handler      MessageHandler
	state        atomic.Int32
}

// NewOrderedConsumer declares the topology and leaves the consumer
// subscribed but not yet receiving.
func NewOrderedConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*OrderedConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("ordered Consumer: message handler is required")
	}
	if cfg.PrefetchCount == 0 {
		cfg.PrefetchCount = 1
	}

	c := &OrderedConsumer{handler: handler}
	c.setState(StateConnecting)

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		c.setState(StateDisconnected)
		return nil, fmt.Errorf("ordered Consumer: %w", err)
	}
	c.baseConsumer = bc
	c.setState(StateSubscribed)
	return c, nil
}

func (c *OrderedConsumer) State() State {
	return State(c.state.Load())
}

func (c *OrderedConsumer) setState(s State) {
	c.state.Store(int32(s))
}

// StartConsuming blocks until ctx is cancelled (returns nil) or the channel
// or delivery stream closes (returns an error).
func (c *OrderedConsumer) StartConsuming(ctx context.Context) error {
	bc := c.baseConsumer
	if bc.channel == nil || bc.connection == nil || bc.connection.IsClosed() {
		c.setState(StateDisconnected)
		return fmt.Errorf("ordered Consumer: not connected")
	}

	msgs, err := bc.channel.Consume(
		bc.actualQueueName,
		bc.config.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("ordered Consumer %s: failed to register a consumer on queue '%s': %w", bc.config.ConsumerTag, bc.actualQueueName, err)
	}

	closed := bc.channel.NotifyClose(make(chan *amqp.Error, 1))
	bc.Logger.Info("[*] Waiting for messages on queue", "queue_name", bc.actualQueueName)

	return c.consumeLoop(ctx, msgs, closed)
}

func (c *OrderedConsumer) consumeLoop(ctx context.Context, msgs <-chan amqp.Delivery, closed <-chan *amqp.Error) error {
	bc := c.baseConsumer
	c.setState(StateRunning)
	defer c.setState(StateDisconnected)

	for {
		// Stop before taking another delivery once shutdown was requested.
		select {
		case <-ctx.Done():
			bc.Logger.Info("Context cancelled. Shutting down consumer.", "consumer_tag", bc.config.ConsumerTag)
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			bc.Logger.Info("Context cancelled. Shutting down consumer.", "consumer_tag", bc.config.ConsumerTag)
			return nil

		case amqpErr, ok := <-closed:
			if !ok || amqpErr == nil {
				return fmt.Errorf("ordered Consumer %s: channel closed", bc.config.ConsumerTag)
			}
			bc.Logger.Error(amqpErr, "Channel closed for consumer.", "consumer_tag", bc.config.ConsumerTag)
			return amqpErr

		case d, ok := <-msgs:
			if !ok {
				bc.Logger.Warn("Deliveries channel closed by RabbitMQ for consumer.", "consumer_tag", bc.config.ConsumerTag)
				return ErrDeliveriesClosed
			}
			c.handle(d)
		}
	}
}

func (c *OrderedConsumer) handle(d amqp.Delivery) {
	bc := c.baseConsumer
	bc.wg.Add(1)
	defer bc.wg.Done()

	if err := c.handler(d); err != nil {
		bc.Logger.Error(err, "Handler error for message. Nacking without requeue.",
			"consumer_tag", bc.config.ConsumerTag,
			"delivery_tag", d.DeliveryTag)
		if nackErr := d.Nack(false, false); nackErr != nil {
			bc.Logger.Error(nackErr, "Failed to nack message", "delivery_tag", d.DeliveryTag)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		bc.Logger.Error(ackErr, "Failed to ack message", "delivery_tag", d.DeliveryTag)
		return
	}
	bc.Logger.Debug("[+] Message Ack'd", "consumer_tag", bc.config.ConsumerTag, "delivery_tag", d.DeliveryTag)
}

// Close waits for the in-flight handler and closes the consumer channel.
func (c *OrderedConsumer) Close() error {
	c.baseConsumer.Logger.Info("Closing consumer")
	defer c.setState(StateDisconnected)
	return c.baseConsumer.Close()
}
