package postgres_adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	affected string
	execErr  error
	row      pgx.Row
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	if q.execErr != nil {
		return pgconn.CommandTag{}, q.execErr
	}
	return pgconn.NewCommandTag(q.affected), nil
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL, q.lastArgs = sql, args
	return q.row
}

func TestMigrations_Embedded(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.Equal(t, []string{"001_create_todos.sql"}, names)

	sql, err := migrationsFS.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS todos")
	for _, column := range strings.Split(todoColumns, ", ") {
		assert.Contains(t, string(sql), column)
	}
}

func TestCreate_PassesAllColumns(t *testing.T) {
	q := &fakeQuerier{affected: "INSERT 0 1"}
	repo := &PostgresTodoRepository{db: q}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	todo := domain.NewTodo("Pay rent", "monthly", now.Add(time.Hour), now)

	require.NoError(t, repo.Create(context.Background(), todo))
	assert.Contains(t, q.lastSQL, "INSERT INTO todos")
	assert.Equal(t, []any{todo.ID, todo.Title, todo.Description, todo.Deadline, todo.CreatedAt, todo.UpdatedAt}, q.lastArgs)
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	q := &fakeQuerier{affected: "UPDATE 0"}
	repo := &PostgresTodoRepository{db: q}
	todo := domain.NewTodo("t", "d", time.Now().Add(time.Hour), time.Now())

	assert.ErrorIs(t, repo.Update(context.Background(), todo), domain.ErrTodoNotFound)

	q.affected = "DELETE 0"
	assert.ErrorIs(t, repo.Delete(context.Background(), todo.ID), domain.ErrTodoNotFound)

	q.affected = "DELETE 1"
	assert.NoError(t, repo.Delete(context.Background(), todo.ID))

	q.execErr = errors.New("conn reset")
	assert.ErrorContains(t, repo.Delete(context.Background(), todo.ID), "conn reset")
}

func TestFindByID(t *testing.T) {
	id := uuid.New()
	local := time.FixedZone("UTC+3", 3*3600)
	deadline := time.Date(2099, 1, 1, 3, 0, 0, 0, local)
	q := &fakeQuerier{row: fakeRow{values: []any{id, "Pay rent", "monthly", deadline, deadline, deadline}}}
	repo := &PostgresTodoRepository{db: q}

	todo, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, todo.ID)
	assert.Equal(t, time.UTC, todo.Deadline.Location())
	assert.True(t, todo.Deadline.Equal(deadline))

	q.row = fakeRow{err: pgx.ErrNoRows}
	_, err = repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
}
