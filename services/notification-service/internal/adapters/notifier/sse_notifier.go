package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
)

const (
	sseEventName      = "todo-expired"
	eventBufferSize   = 100
	clientChannelSize = 16
)

// ClientChannel carries formatted SSE frames to one connected client.
type ClientChannel chan []byte

type eventWithContext struct {
	ctx   context.Context
	event domain.DeadlineEvent
}

// SSENotifier broadcasts expired todos to every subscribed browser.
// Notify never blocks the consumer: when the buffer is full the event is
// dropped with a warning.
type SSENotifier struct {
	clients map[ClientChannel]struct{}
	mu      sync.RWMutex

	eventChan chan eventWithContext
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	logger port.LoggerPort
}

// NewSSENotifier starts the dispatcher goroutine. Call Close to stop it.
func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	n := &SSENotifier{
		clients:   make(map[ClientChannel]struct{}),
		eventChan: make(chan eventWithContext, eventBufferSize),
		done:      make(chan struct{}),
		logger:    baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
	}

	n.wg.Add(1)
	go n.dispatcher()

	return n
}

func (n *SSENotifier) dispatcher() {
	defer n.wg.Done()
	n.logger.Debug("Notifier dispatcher started.", nil)

	for {
		select {
		case <-n.done:
			n.logger.Debug("Notifier dispatcher stopped.", nil)
			return
		case pkg := <-n.eventChan:
			n.broadcast(pkg)
		}
	}
}

func (n *SSENotifier) broadcast(pkg eventWithContext) {
	eventLogger := contextkeys.LoggerFromContext(pkg.ctx).WithFields(port.Fields{
		"component": "SSENotifier.dispatcher",
		"todo_id":   pkg.event.ID,
	})

	frame, err := FormatEvent(pkg.event)
	if err != nil {
		eventLogger.Error("Failed to marshal event", err, nil)
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if len(n.clients) == 0 {
		eventLogger.Debug("No active clients, event dropped.", nil)
		return
	}
	eventLogger.Debug("Dispatching event to clients", port.Fields{"clients_count": len(n.clients)})
	for ch := range n.clients {
		select {
		case ch <- frame:
		default:
			eventLogger.Warn("Client channel is full, skipping.", nil)
		}
	}
}

// FormatEvent renders event as one SSE frame.
func FormatEvent(event domain.DeadlineEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", sseEventName, data)), nil
}

func (n *SSENotifier) Notify(ctx context.Context, event domain.DeadlineEvent) error {
	select {
	case <-n.done:
		return nil
	default:
	}

	// the delivery context is finished by the time the dispatcher runs
	pkg := eventWithContext{ctx: context.WithoutCancel(ctx), event: event}
	select {
	case n.eventChan <- pkg:
	default:
		contextkeys.LoggerFromContext(ctx).Warn("Notifier buffer is full, event dropped.", port.Fields{"todo_id": event.ID})
	}
	return nil
}

// AddClient registers a new SSE connection.
func (n *SSENotifier) AddClient() ClientChannel {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(ClientChannel, clientChannelSize)
	n.clients[ch] = struct{}{}
	n.logger.Info("Client connected", port.Fields{"total_connections": len(n.clients)})
	return ch
}

func (n *SSENotifier) RemoveClient(ch ClientChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, found := n.clients[ch]; !found {
		return
	}
	delete(n.clients, ch)
	n.logger.Info("Client disconnected", port.Fields{"remaining_connections": len(n.clients)})
}

func (n *SSENotifier) ClientCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients)
}

// Done is closed when the notifier shuts down.
func (n *SSENotifier) Done() <-chan struct{} {
	return n.done
}

func (n *SSENotifier) Close() error {
	n.closeOnce.Do(func() {
		close(n.done)
	})
	n.wg.Wait()
	return nil
}
