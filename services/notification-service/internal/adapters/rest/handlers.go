package rest

import (
	"net/http"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/adapters/notifier"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
)

// NotificationStream is implemented by *notifier.SSENotifier.
type NotificationStream interface {
	AddClient() notifier.ClientChannel
	RemoveClient(ch notifier.ClientChannel)
	Done() <-chan struct{}
}

type NotificationHandler struct {
	stream NotificationStream
}

func NewNotificationHandler(stream NotificationStream) *NotificationHandler {
	return &NotificationHandler{stream: stream}
}

// SubscribeToNotifications keeps the connection open and writes one SSE
// frame per expired todo.
func (h *NotificationHandler) SubscribeToNotifications(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SubscribeToNotifications"})

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.stream.AddClient()
	defer h.stream.RemoveClient(ch)
	logger.Info("SSE client subscribed", nil)

	for {
		select {
		case <-r.Context().Done():
			logger.Info("SSE client disconnected", nil)
			return
		case <-h.stream.Done():
			return
		case frame := <-ch:
			if _, err := w.Write(frame); err != nil {
				logger.Error("Failed to write SSE frame", err, nil)
				return
			}
			flusher.Flush()
		}
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"state": "ok"})
}
