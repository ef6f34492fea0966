package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/eliyaaki/todo-micro-services/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu      sync.Mutex
	todos   map[uuid.UUID]domain.Todo
	order   []uuid.UUID
	findErr error
	saveErr error
}

func newFakeRepo(todos ...domain.Todo) *fakeRepo {
	r := &fakeRepo{todos: map[uuid.UUID]domain.Todo{}}
	for _, todo := range todos {
		r.todos[todo.ID] = todo
		r.order = append(r.order, todo.ID)
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.todos[todo.ID] = *todo
	r.order = append(r.order, todo.ID)
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.todos[todo.ID]; !ok {
		return domain.ErrTodoNotFound
	}
	r.todos[todo.ID] = *todo
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, todoID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[todoID]; !ok {
		return domain.ErrTodoNotFound
	}
	delete(r.todos, todoID)
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, todoID uuid.UUID) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[todoID]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	return &todo, nil
}

func (r *fakeRepo) FindAll(ctx context.Context) ([]domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]domain.Todo, 0, len(r.order))
	for _, id := range r.order {
		if todo, ok := r.todos[id]; ok {
			out = append(out, todo)
		}
	}
	return out, nil
}

type fakeQueue struct {
	mu        sync.Mutex
	published []domain.Todo
	failFor   map[uuid.UUID]bool
	err       error
}

func (q *fakeQueue) PublishTodo(ctx context.Context, todo domain.Todo) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil || q.failFor[todo.ID] {
		return errors.New("broker unavailable")
	}
	q.published = append(q.published, todo)
	return nil
}

func todoFixture(title string) domain.Todo {
	return *domain.NewTodo(title, title+" description", fixedNow.Add(time.Hour), fixedNow)
}

func testContext() (context.Context, *logger.Recorder) {
	rec := logger.NewRecorder()
	return contextkeys.ContextWithLogger(context.Background(), rec), rec
}

func TestPublishAllTodos_OneFailureDoesNotAbortTick(t *testing.T) {
	a, b, c := todoFixture("a"), todoFixture("b"), todoFixture("c")
	repo := newFakeRepo(a, b, c)
	queue := &fakeQueue{failFor: map[uuid.UUID]bool{b.ID: true}}
	ctx, rec := testContext()

	report, err := NewPublishAllTodosUseCase(repo, queue, 4).Execute(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Published)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.ErrorContains(t, report.Errors[0], b.ID.String())

	published := map[uuid.UUID]bool{}
	for _, todo := range queue.published {
		published[todo.ID] = true
	}
	assert.Equal(t, map[uuid.UUID]bool{a.ID: true, c.ID: true}, published)
	assert.NotEqual(t, -1, rec.Index("Failed to publish todo"))
}

func TestPublishAllTodos_StoreFailureAbortsTick(t *testing.T) {
	repo := newFakeRepo(todoFixture("a"))
	repo.findErr = errors.New("connection refused")
	queue := &fakeQueue{}
	ctx, _ := testContext()

	report, err := NewPublishAllTodosUseCase(repo, queue, 2).Execute(ctx)
	assert.Error(t, err)
	assert.Equal(t, usecases_port.PublishReport{}, report)
	assert.Empty(t, queue.published)
}

func TestPublishAllTodos_PublishesEverythingEveryTick(t *testing.T) {
	expired := *domain.NewTodo("Old task", "d", fixedNow.Add(-time.Hour), fixedNow.Add(-2*time.Hour))
	repo := newFakeRepo(expired, todoFixture("b"))
	queue := &fakeQueue{}
	uc := NewPublishAllTodosUseCase(repo, queue, 0)
	ctx, _ := testContext()

	for i := 0; i < 3; i++ {
		_, err := uc.Execute(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, queue.published, 6)
}

func TestCreateTodo_PublishesOnce(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{}
	uc := NewCreateTodoUseCase(repo, queue)
	uc.now = func() time.Time { return fixedNow }
	ctx, _ := testContext()

	todo, err := uc.Execute(ctx, "Pay rent", "monthly", "2099-01-01T00:00:00")
	require.NoError(t, err)

	require.Len(t, queue.published, 1)
	assert.Equal(t, *todo, queue.published[0])
	assert.Equal(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), todo.Deadline)
	assert.Equal(t, fixedNow, todo.CreatedAt)
}

func TestCreateTodo_PublishFailurePropagates(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{err: errors.New("down")}
	uc := NewCreateTodoUseCase(repo, queue)
	uc.now = func() time.Time { return fixedNow }
	ctx, _ := testContext()

	todo, err := uc.Execute(ctx, "Pay rent", "monthly", "2099-01-01T00:00:00")
	assert.Error(t, err)
	assert.Nil(t, todo)

	stored, findErr := repo.FindAll(ctx)
	require.NoError(t, findErr)
	assert.Len(t, stored, 1, "the row is kept for the next tick")
}

func TestCreateTodo_RejectsBadDeadline(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{}
	uc := NewCreateTodoUseCase(repo, queue)
	uc.now = func() time.Time { return fixedNow }
	ctx, _ := testContext()

	_, err := uc.Execute(ctx, "t", "d", "2000-01-01")
	assert.ErrorIs(t, err, domain.ErrDeadlineNotInFuture)

	_, err = uc.Execute(ctx, "t", "d", "soon")
	assert.ErrorIs(t, err, domain.ErrInvalidDeadline)

	assert.Empty(t, queue.published)
	stored, _ := repo.FindAll(ctx)
	assert.Empty(t, stored)
}

func TestCreateTodo_StoreFailureSkipsPublish(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("insert failed")
	queue := &fakeQueue{}
	uc := NewCreateTodoUseCase(repo, queue)
	uc.now = func() time.Time { return fixedNow }
	ctx, _ := testContext()

	_, err := uc.Execute(ctx, "t", "d", "2099-01-01")
	assert.EqualError(t, err, "insert failed")
	assert.Empty(t, queue.published)
}

func TestUpdateTodo(t *testing.T) {
	existing := todoFixture("Pay rent")
	repo := newFakeRepo(existing)
	uc := NewUpdateTodoUseCase(repo)
	later := fixedNow.Add(time.Minute)
	uc.now = func() time.Time { return later }
	ctx, _ := testContext()

	description := "before the 5th"
	updated, err := uc.Execute(ctx, existing.ID, usecases_port.UpdateTodoInput{
		Description: &description,
		Deadline:    "2099-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pay rent", updated.Title)
	assert.Equal(t, "before the 5th", updated.Description)
	assert.Equal(t, time.Date(2099, 2, 1, 0, 0, 0, 0, time.UTC), updated.Deadline)
	assert.Equal(t, later, updated.UpdatedAt)

	_, err = uc.Execute(ctx, existing.ID, usecases_port.UpdateTodoInput{Deadline: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidDeadline)

	_, err = uc.Execute(ctx, uuid.New(), usecases_port.UpdateTodoInput{Deadline: "2099-02-01"})
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
}

func TestDeleteAndGetAll(t *testing.T) {
	a, b := todoFixture("a"), todoFixture("b")
	repo := newFakeRepo(a, b)
	ctx, _ := testContext()

	require.NoError(t, NewDeleteTodoUseCase(repo).Execute(ctx, a.ID))
	assert.ErrorIs(t, NewDeleteTodoUseCase(repo).Execute(ctx, a.ID), domain.ErrTodoNotFound)

	todos, err := NewGetAllTodosUseCase(repo).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, b.ID, todos[0].ID)
}
