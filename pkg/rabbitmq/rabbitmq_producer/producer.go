package rabbitmq_producer

import (
	"context"
	"fmt"

	"github.com/eliyaaki/todo-micro-services/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PublisherConfig configures a publisher bound to one exchange.
type PublisherConfig struct {
	ExchangeName string // empty string publishes to the default exchange
	ExchangeType string
	ExchangeArgs amqp.Table

	// DeclareExchangeIfMissing declares a durable exchange on start. When
	// false the exchange is expected to exist already.
	DeclareExchangeIfMissing bool

	Logger rabbitmq_common.Logger
}

// Publisher publishes on its own channel of the shared connection.
type Publisher struct {
	config     PublisherConfig
	connection *amqp.Connection
	channel    *amqp.Channel
	closed     <-chan *amqp.Error

	Logger rabbitmq_common.Logger
}

func NewPublisher(cfg PublisherConfig, connManager *rabbitmq_common.ConnectionManager) (*Publisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	if cfg.DeclareExchangeIfMissing && cfg.ExchangeName == "" {
		return nil, fmt.Errorf("producer: exchange name is required when DeclareExchangeIfMissing is true")
	}
	if cfg.DeclareExchangeIfMissing && cfg.ExchangeType == "" {
		cfg.ExchangeType = amqp.ExchangeFanout
	}

	p := &Publisher{
		config: cfg,
		Logger: logger,
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("producer: failed to get channel from manager: %w", err)
	}
	p.connection = conn
	p.channel = ch
	p.Logger.Debug("Channel obtained from ConnectionManager")

	if p.config.DeclareExchangeIfMissing {
		p.Logger.Debug("Declaring exchange",
			"name", p.config.ExchangeName,
			"type", p.config.ExchangeType,
		)
		err = rabbitmq_common.DeclareExchange(p.config.ExchangeName, func() error {
			return p.channel.ExchangeDeclare(
				p.config.ExchangeName,
				p.config.ExchangeType,
				true,  // durable
				false, // auto-deleted
				false, // internal
				false, // no-wait
				p.config.ExchangeArgs,
			)
		}, p.reopenChannel, p.Logger)
		if err != nil {
			_ = p.channel.Close()
			return nil, fmt.Errorf("producer: failed to declare exchange '%s': %w", p.config.ExchangeName, err)
		}
	}

	p.closed = p.channel.NotifyClose(make(chan *amqp.Error, 1))
	p.Logger.Debug("Publisher ready", "exchange", p.config.ExchangeName)
	return p, nil
}

func (p *Publisher) reopenChannel() error {
	ch, err := p.connection.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

// NotifyClose delivers the reason when the broker closes the publisher
// channel. Every later Publish fails, so callers treat it as fatal.
func (p *Publisher) NotifyClose() <-chan *amqp.Error {
	return p.closed
}

// Publish sends one message to the configured exchange.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if p.channel == nil || p.connection == nil || p.connection.IsClosed() || p.channel.IsClosed() {
		return fmt.Errorf("producer: not connected or channel/connection is closed")
	}

	err := p.channel.PublishWithContext(
		ctx,
		p.config.ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	return nil
}

// Close closes the publisher channel. The connection belongs to the manager.
func (p *Publisher) Close() error {
	p.Logger.Debug("Producer: Closing...")

	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.Logger.Error(err, "Error closing channel")
			firstErr = err
		}
		p.channel = nil
	}

	p.Logger.Info("Producer closed.")
	return firstErr
}
