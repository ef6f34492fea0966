package rabbitmq_common

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
)

// ConnectionManager owns the single broker connection of a process. Each
// publisher and consumer opens its own channel on it.
type ConnectionManager struct {
	config     Config
	connection *amqp.Connection
	mutex      sync.RWMutex
	Logger     Logger
}

// NewManager connects with bounded retries. When the retries are exhausted
// the error is returned and the caller is expected to stop.
func NewManager(ctx context.Context, cfg Config, logger Logger) (*ConnectionManager, error) {
	if logger == nil {
		logger = NewNoopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &ConnectionManager{
		config: cfg.withDefaults(),
		Logger: logger,
	}

	if err := m.connect(ctx); err != nil {
		logger.Error(err, "ConnectionManager: Initial connection failed")
		return nil, fmt.Errorf("initial connection failed: %w", err)
	}
	return m, nil
}

func (m *ConnectionManager) backoff() retry.Backoff {
	b := retry.NewExponential(m.config.InitialRetryDelay)
	b = retry.WithCappedDuration(m.config.MaxRetryDelay, b)
	return retry.WithMaxRetries(uint64(m.config.MaxRetries), b)
}

func (m *ConnectionManager) connect(ctx context.Context) error {
	attempt := 0
	return retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		attempt++
		m.Logger.Debug("ConnectionManager: Connecting...", "attempt", attempt)

		conn, err := m.dialAny()
		if err != nil {
			m.Logger.Warn("ConnectionManager: Connection attempt failed", "attempt", attempt, "error", err.Error())
			return retry.RetryableError(err)
		}

		m.mutex.Lock()
		m.connection = conn
		m.mutex.Unlock()

		m.Logger.Info("ConnectionManager: Connected successfully", "attempt", attempt, "client_id", m.config.ClientID)
		return nil
	})
}

// amqpConfig carries the client id as the connection_name property.
func (m *ConnectionManager) amqpConfig() amqp.Config {
	amqpCfg := amqp.Config{
		Properties: amqp.NewConnectionProperties(),
		Heartbeat:  DefaultHeartbeat,
		Locale:     "en_US",
		Dial:       amqp.DefaultDial(m.config.DialTimeout),
	}
	if m.config.ClientID != "" {
		amqpCfg.Properties.SetClientConnectionName(m.config.ClientID)
	}
	return amqpCfg
}

// dialAny walks the broker list and returns the first connection that opens.
func (m *ConnectionManager) dialAny() (*amqp.Connection, error) {
	amqpCfg := m.amqpConfig()

	var errs []error
	for _, url := range m.config.URLs {
		conn, err := amqp.DialConfig(url, amqpCfg)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, fmt.Errorf("dial %s: %w", RedactURL(url), err))
	}
	return nil, errors.Join(errs...)
}

// GetChannel opens a new channel on the shared connection. A closed
// connection is not re-dialled: connection loss is fatal for the process.
func (m *ConnectionManager) GetChannel() (*amqp.Connection, *amqp.Channel, error) {
	m.mutex.RLock()
	conn := m.connection
	m.mutex.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, nil, fmt.Errorf("ConnectionManager: connection is closed")
	}
	ch, err := conn.Channel()
	if err != nil {
		return conn, nil, fmt.Errorf("ConnectionManager: failed to open a channel: %w", err)
	}
	return conn, ch, nil
}

// NotifyClose delivers the close reason once the connection goes away. A
// nil value means the connection was closed by Close.
func (m *ConnectionManager) NotifyClose() <-chan *amqp.Error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	ch := make(chan *amqp.Error, 1)
	if m.connection == nil {
		close(ch)
		return ch
	}
	return m.connection.NotifyClose(ch)
}

// Close closes the shared connection.
func (m *ConnectionManager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.connection != nil && !m.connection.IsClosed() {
		m.Logger.Debug("ConnectionManager: Closing the connection...")
		if err := m.connection.Close(); err != nil {
			m.Logger.Error(err, "ConnectionManager: Failed to close connection properly")
			return err
		}
		m.Logger.Debug("ConnectionManager: Connection closed successfully.")
		return nil
	}

	m.Logger.Debug("ConnectionManager: Connection was already closed or not established.")
	return nil
}
