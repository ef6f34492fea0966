package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeGetAll struct {
	todos []domain.Todo
	err   error
}

func (f *fakeGetAll) Execute(ctx context.Context) ([]domain.Todo, error) { return f.todos, f.err }

type fakeCreate struct {
	gotTitle, gotDeadline string
	err                   error
}

func (f *fakeCreate) Execute(ctx context.Context, title, description, deadline string) (*domain.Todo, error) {
	f.gotTitle, f.gotDeadline = title, deadline
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewTodo(title, description, testNow.Add(time.Hour), testNow), nil
}

type fakeUpdate struct {
	gotID    uuid.UUID
	gotInput usecases_port.UpdateTodoInput
	err      error
}

func (f *fakeUpdate) Execute(ctx context.Context, id uuid.UUID, input usecases_port.UpdateTodoInput) (*domain.Todo, error) {
	f.gotID, f.gotInput = id, input
	if f.err != nil {
		return nil, f.err
	}
	todo := domain.NewTodo("x", "y", testNow.Add(time.Hour), testNow)
	todo.ID = id
	return todo, nil
}

type fakeDelete struct {
	err error
}

func (f *fakeDelete) Execute(ctx context.Context, id uuid.UUID) error { return f.err }

type fixture struct {
	getAll *fakeGetAll
	create *fakeCreate
	update *fakeUpdate
	delete *fakeDelete
	router http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		getAll: &fakeGetAll{},
		create: &fakeCreate{},
		update: &fakeUpdate{},
		delete: &fakeDelete{},
	}
	f.router = NewRouter(NewTodoHandler(f.getAll, f.create, f.update, f.delete), logger.NewNoopLogger())
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) int {
	t.Helper()
	var env struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.Status
}

func TestGetAllTodos(t *testing.T) {
	f := newFixture()
	f.getAll.todos = []domain.Todo{*domain.NewTodo("Pay rent", "monthly", testNow.Add(time.Hour), testNow)}

	rr := f.do(http.MethodGet, "/getAllTodos", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var todos []TodoResponse
	assert.Equal(t, 200, decodeEnvelope(t, rr, &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "Pay rent", todos[0].Title)
	assert.NotEmpty(t, rr.Header().Get("x-trace-id"))

	f.getAll.err = errors.New("db down")
	rr = f.do(http.MethodGet, "/getAllTodos", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCreateTodo(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/add", `{"title":"Pay rent","description":"monthly","deadline":"2099-01-01T00:00:00"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var todo TodoResponse
	decodeEnvelope(t, rr, &todo)
	assert.Equal(t, "Pay rent", todo.Title)
	assert.Equal(t, "2099-01-01T00:00:00", f.create.gotDeadline)
}

func TestCreateTodo_BadRequests(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/add", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPost, "/add", `{"title":"","description":"d","deadline":"2099-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "field 'title' failed on 'required'")

	f.create.err = domain.ErrDeadlineNotInFuture
	rr = f.do(http.MethodPost, "/add", `{"title":"t","description":"d","deadline":"2000-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "future")
}

func TestCreateTodo_PublishFailureIsServerError(t *testing.T) {
	f := newFixture()
	f.create.err = errors.New("stored but not published")

	rr := f.do(http.MethodPost, "/add", `{"title":"t","description":"d","deadline":"2099-01-01"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
}

func TestUpdateTodo(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	rr := f.do(http.MethodPut, "/update/"+id.String(), `{"title":"new","deadline":"2099-01-01"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, id, f.update.gotID)
	require.NotNil(t, f.update.gotInput.Title)
	assert.Equal(t, "new", *f.update.gotInput.Title)
	assert.Nil(t, f.update.gotInput.Description)

	rr = f.do(http.MethodPut, "/update/not-a-uuid", `{"deadline":"2099-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPut, "/update/"+id.String(), `{"title":"new"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "deadline is required")

	f.update.err = domain.ErrTodoNotFound
	rr = f.do(http.MethodPut, "/update/"+id.String(), `{"deadline":"2099-01-01"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteTodo(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	rr := f.do(http.MethodDelete, "/delete/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	f.delete.err = domain.ErrTodoNotFound
	rr = f.do(http.MethodDelete, "/delete/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthz(t *testing.T) {
	rr := newFixture().do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
