package constants

import "time"

// DefaultDeadlineTopic is the topic carrying deadline events.
const DefaultDeadlineTopic = "todo-deadline-checking"

const (
	ContentTypeJSON = "application/json"
	PublishTimeout  = 10 * time.Second
)
