package logger

// Fields carries structured data attached to a log entry.
type Fields map[string]interface{}

// LoggerPort is the logging contract shared by every service.
type LoggerPort interface {
	Info(msg string, fields Fields)

	Warn(msg string, fields Fields)

	Error(msg string, err error, fields Fields)

	Debug(msg string, fields Fields)
	// WithFields returns a logger that adds fields to every entry.
	WithFields(fields Fields) LoggerPort
}

type noopLogger struct{}

func (n *noopLogger) Info(msg string, fields Fields)             {}
func (n *noopLogger) Warn(msg string, fields Fields)             {}
func (n *noopLogger) Error(msg string, err error, fields Fields) {}
func (n *noopLogger) Debug(msg string, fields Fields)            {}
func (n *noopLogger) WithFields(fields Fields) LoggerPort        { return n }

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() LoggerPort {
	return &noopLogger{}
}

func mergeFields(base, extra Fields) Fields {
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
