package fluentlogger

import (
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// Config describes the Fluent Bit forward input.
type Config struct {
	Host      string // "127.0.0.1" or "fluent-bit" inside docker compose
	Port      int    // 24224
	TagPrefix string // service name, prepended to every tag
	Timeout   time.Duration
	// Async posts from a background goroutine.
	Async bool
}

// NewClient creates a Fluent Bit client. There is no ping: connection
// problems surface on the first Post.
func NewClient(cfg Config) (*fluent.Fluent, error) {
	if cfg.TagPrefix == "" {
		return nil, fmt.Errorf("fluentd tag prefix is required")
	}

	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.Host,
		FluentPort: cfg.Port,
		TagPrefix:  cfg.TagPrefix,
		Timeout:    cfg.Timeout,
		Async:      cfg.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fluentd logger: %w", err)
	}

	return client, nil
}
