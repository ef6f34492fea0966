package domain

import (
	"errors"
	"time"

	"github.com/eliyaaki/todo-micro-services/pkg/deadline"
	"github.com/google/uuid"
)

var (
	ErrTodoNotFound        = errors.New("todo not found")
	ErrInvalidDeadline     = deadline.ErrInvalidFormat
	ErrDeadlineNotInFuture = errors.New("the deadline should be a future date")
)

// Todo is the stored task. Its JSON form is the deadline event payload.
type Todo struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoPatch carries the fields of an update. Nil means unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
	Deadline    time.Time
}

func NewTodo(title, description string, due, now time.Time) *Todo {
	now = now.UTC()
	return &Todo{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Deadline:    due.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply copies the patch onto t.
func (t *Todo) Apply(patch TodoPatch, now time.Time) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	t.Deadline = patch.Deadline.UTC()
	t.UpdatedAt = now.UTC()
}

// ParseTimestamp parses a deadline in any accepted layout.
func ParseTimestamp(raw string) (time.Time, error) {
	return deadline.Parse(raw)
}

// ParseDeadline parses raw and requires it to be strictly after now.
func ParseDeadline(raw string, now time.Time) (time.Time, error) {
	ts, err := ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.After(now) {
		return time.Time{}, ErrDeadlineNotInFuture
	}
	return ts, nil
}
