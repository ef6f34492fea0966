package constants

const (
	DefaultDeadlineTopic = "todo-deadline-checking"
	DefaultClientID      = "notification-app-consumer"
	DefaultGroupID       = "notification-app-group"
)

// Notifier kinds accepted by NOTIFIER.
const (
	NotifierLog = "log"
	NotifierSSE = "sse"
)
