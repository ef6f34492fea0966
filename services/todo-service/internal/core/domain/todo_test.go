package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2099-01-01T00:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseTimestamp("tomorrow")
	assert.ErrorIs(t, err, ErrInvalidDeadline)
}

func TestParseDeadline_MustBeInFuture(t *testing.T) {
	_, err := ParseDeadline("2000-01-01T00:00:00", now)
	assert.ErrorIs(t, err, ErrDeadlineNotInFuture)

	_, err = ParseDeadline(now.Format(time.RFC3339), now)
	assert.ErrorIs(t, err, ErrDeadlineNotInFuture, "equal to now is not in the future")

	got, err := ParseDeadline("2099-01-01T00:00:00", now)
	require.NoError(t, err)
	assert.Equal(t, 2099, got.Year())

	_, err = ParseDeadline("not a date", now)
	assert.ErrorIs(t, err, ErrInvalidDeadline)
}

func TestTodo_Apply(t *testing.T) {
	todo := NewTodo("Pay rent", "monthly", now.Add(time.Hour), now)
	title := "Pay rent today"
	later := now.Add(time.Minute)

	todo.Apply(TodoPatch{Title: &title, Deadline: now.Add(2 * time.Hour)}, later)

	assert.Equal(t, "Pay rent today", todo.Title)
	assert.Equal(t, "monthly", todo.Description)
	assert.Equal(t, now.Add(2*time.Hour), todo.Deadline)
	assert.Equal(t, now, todo.CreatedAt)
	assert.Equal(t, later, todo.UpdatedAt)
}

func TestTodo_JSONFieldNames(t *testing.T) {
	todo := NewTodo("Pay rent", "monthly", now.Add(time.Hour), now)
	body, err := json.Marshal(todo)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	for _, key := range []string{"id", "title", "description", "deadline", "created_at", "updated_at"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "2024-05-01T13:00:00Z", raw["deadline"])
}
