package domain

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eliyaaki/todo-micro-services/pkg/deadline"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrMalformedEvent  = errors.New("malformed deadline event")
	ErrInvalidDeadline = deadline.ErrInvalidFormat
)

// DeadlineEvent is the todo snapshot received from the deadline topic.
// Fields other than these are ignored.
type DeadlineEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

//go:embed schema/deadline_event.schema.json
var deadlineEventSchemaJSON []byte

const deadlineEventSchemaURL = "deadline_event.schema.json"

var deadlineEventSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(deadlineEventSchemaURL, bytes.NewReader(deadlineEventSchemaJSON)); err != nil {
		panic(fmt.Sprintf("deadline event schema: %v", err))
	}
	return compiler.MustCompile(deadlineEventSchemaURL)
}

// DecodeDeadlineEvent checks body against the event schema and decodes it.
func DecodeDeadlineEvent(body []byte) (DeadlineEvent, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return DeadlineEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := deadlineEventSchema.Validate(raw); err != nil {
		return DeadlineEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var event DeadlineEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return DeadlineEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return event, nil
}

// DeadlineTime parses the deadline; timestamps without an offset are UTC.
func (e DeadlineEvent) DeadlineTime() (time.Time, error) {
	return deadline.Parse(e.Deadline)
}
