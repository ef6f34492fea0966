package port

import "context"

// EventListenerPort receives broker events until ctx is cancelled or the
// subscription fails.
type EventListenerPort interface {
	Start(ctx context.Context) error
	Close() error
}
