package logger

import (
	"fmt"
	"log/slog"
	"time"
)

// FluentPoster is the subset of *fluent.Fluent used by the adapter.
type FluentPoster interface {
	Post(tag string, message interface{}) error
	Close() error
}

// FluentLoggerAdapter ships log entries to Fluent Bit.
type FluentLoggerAdapter struct {
	client   FluentPoster
	fields   Fields
	minLevel slog.Level
}

// NewFluentLoggerAdapter wraps an already connected fluent client.
func NewFluentLoggerAdapter(client FluentPoster, minLevel slog.Leveler) (*FluentLoggerAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("fluent client cannot be nil")
	}

	level := slog.LevelInfo
	if minLevel != nil {
		level = minLevel.Level()
	}

	return &FluentLoggerAdapter{
		client:   client,
		fields:   make(Fields),
		minLevel: level,
	}, nil
}

// post uses the level as the tag suffix; the client adds the service prefix.
func (a *FluentLoggerAdapter) post(level string, msg string, data Fields) {
	data["level"] = level
	data["message"] = msg
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)

	_ = a.client.Post(level, data)
}

func (a *FluentLoggerAdapter) Info(msg string, fields Fields) {
	if a.minLevel > slog.LevelInfo {
		return
	}
	a.post("info", msg, mergeFields(a.fields, fields))
}

func (a *FluentLoggerAdapter) Warn(msg string, fields Fields) {
	if a.minLevel > slog.LevelWarn {
		return
	}
	a.post("warn", msg, mergeFields(a.fields, fields))
}

func (a *FluentLoggerAdapter) Error(msg string, err error, fields Fields) {
	if a.minLevel > slog.LevelError {
		return
	}
	data := mergeFields(a.fields, fields)
	if err != nil {
		data["error"] = err.Error()
	}
	a.post("error", msg, data)
}

func (a *FluentLoggerAdapter) Debug(msg string, fields Fields) {
	if a.minLevel > slog.LevelDebug {
		return
	}
	a.post("debug", msg, mergeFields(a.fields, fields))
}

func (a *FluentLoggerAdapter) WithFields(fields Fields) LoggerPort {
	return &FluentLoggerAdapter{
		client:   a.client,
		fields:   mergeFields(a.fields, fields),
		minLevel: a.minLevel,
	}
}

// Close closes the underlying fluent connection.
func (a *FluentLoggerAdapter) Close() error {
	return a.client.Close()
}
