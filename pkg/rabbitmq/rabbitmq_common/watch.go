package rabbitmq_common

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// CloseSignal is a named close notification of a connection or channel.
type CloseSignal struct {
	Name string
	C    <-chan *amqp.Error
}

// WatchClose reports the first signal that fires before ctx is done. A
// signal closed without a reason is reported as well: the resource is gone
// either way.
func WatchClose(ctx context.Context, signals ...CloseSignal) <-chan error {
	out := make(chan error, len(signals))
	for _, signal := range signals {
		go func() {
			select {
			case <-ctx.Done():
			case amqpErr, ok := <-signal.C:
				if !ok || amqpErr == nil {
					out <- fmt.Errorf("rabbitmq %s closed", signal.Name)
					return
				}
				out <- fmt.Errorf("rabbitmq %s closed: %w", signal.Name, amqpErr)
			}
		}()
	}
	return out
}
