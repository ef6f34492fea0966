package rabbitmq_common

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TopicConfig describes a topic exchange. Zero values give a durable fanout.
type TopicConfig struct {
	Name string
	Kind string
	Args amqp.Table
}

// CreateTopic declares the topic exchange on a short-lived channel. The call
// is idempotent; a topic that already exists with other settings is logged
// and not treated as an error.
func (m *ConnectionManager) CreateTopic(topic TopicConfig) error {
	if topic.Name == "" {
		return fmt.Errorf("topic name is required")
	}
	kind := topic.Kind
	if kind == "" {
		kind = amqp.ExchangeFanout
	}

	_, ch, err := m.GetChannel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	err = ch.ExchangeDeclare(
		topic.Name,
		kind,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		topic.Args,
	)
	if err != nil {
		if IsAlreadyExists(err) {
			m.Logger.Warn("Topic already exists with different settings", "topic", topic.Name, "error", err.Error())
			return nil
		}
		return fmt.Errorf("failed to create topic '%s': %w", topic.Name, err)
	}

	m.Logger.Info("Topic created successfully", "topic", topic.Name, "kind", kind)
	return nil
}

// IsAlreadyExists reports whether err is the broker refusing to redeclare an
// existing entity with different settings.
func IsAlreadyExists(err error) bool {
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Code == amqp.PreconditionFailed
	}
	return false
}

// GroupQueueName is the durable queue shared by members of a consumer group.
func GroupQueueName(group, topic string) string {
	return group + "." + topic
}

// SinglePartitionQueueArgs makes a group queue behave like a single
// partition: one active member at a time, no replication.
func SinglePartitionQueueArgs() amqp.Table {
	return amqp.Table{
		"x-single-active-consumer": true,
		"x-queue-type":             "classic",
	}
}

// DeclareExchange runs declare and accepts an exchange that already exists
// with other settings. The broker closes the channel on that 406, so reopen
// must replace it before the caller continues.
func DeclareExchange(name string, declare func() error, reopen func() error, logger Logger) error {
	err := declare()
	if err == nil {
		return nil
	}
	if !IsAlreadyExists(err) {
		return err
	}

	logger.Warn("Exchange already exists with different settings", "name", name)
	if err := reopen(); err != nil {
		return fmt.Errorf("failed to reopen channel after declaring '%s': %w", name, err)
	}
	return nil
}

