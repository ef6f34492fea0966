package rabbitmq_common

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultDialTimeout       = 10 * time.Second
	DefaultMaxRetries        = 10
	DefaultInitialRetryDelay = 300 * time.Millisecond
	DefaultMaxRetryDelay     = 5 * time.Second
	DefaultHeartbeat         = 10 * time.Second
)

// Config describes how to reach the broker.
type Config struct {
	// URLs are tried in order on every connection attempt.
	URLs []string
	// ClientID is sent as the AMQP connection_name.
	ClientID string

	DialTimeout       time.Duration
	MaxRetries        int
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
}

// Validate checks the fields that have no sensible default.
func (c Config) Validate() error {
	if len(c.URLs) == 0 {
		return fmt.Errorf("rabbitmq config: at least one broker URL is required")
	}
	for _, raw := range c.URLs {
		if !strings.HasPrefix(raw, "amqp://") && !strings.HasPrefix(raw, "amqps://") {
			return fmt.Errorf("rabbitmq config: broker URL %q must use amqp:// or amqps://", RedactURL(raw))
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("rabbitmq config: max retries cannot be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = DefaultInitialRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = DefaultMaxRetryDelay
	}
	return c
}

// RedactURL hides the password of a broker URL for logs and errors.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
