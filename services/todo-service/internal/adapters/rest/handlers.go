package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type TodoHandler struct {
	getAllUC usecases_port.GetAllTodosUseCasePort
	createUC usecases_port.CreateTodoUseCasePort
	updateUC usecases_port.UpdateTodoUseCasePort
	deleteUC usecases_port.DeleteTodoUseCasePort
	validate *validator.Validate
}

func NewTodoHandler(
	getAllUC usecases_port.GetAllTodosUseCasePort,
	createUC usecases_port.CreateTodoUseCasePort,
	updateUC usecases_port.UpdateTodoUseCasePort,
	deleteUC usecases_port.DeleteTodoUseCasePort,
) *TodoHandler {
	return &TodoHandler{
		getAllUC: getAllUC,
		createUC: createUC,
		updateUC: updateUC,
		deleteUC: deleteUC,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func isDeadlineError(err error) bool {
	return errors.Is(err, domain.ErrInvalidDeadline) || errors.Is(err, domain.ErrDeadlineNotInFuture)
}

func (h *TodoHandler) GetAllTodos(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetAllTodos"})

	todos, err := h.getAllUC.Execute(r.Context())
	if err != nil {
		logger.Error("GetAllTodos use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	responses := make([]TodoResponse, len(todos))
	for i := range todos {
		responses[i] = toTodoResponse(&todos[i])
	}
	RespondWithJSON(w, http.StatusOK, responses)
}

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateTodo"})

	var req CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode create todo request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		logger.Warn("Create todo request failed validation", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	todo, err := h.createUC.Execute(r.Context(), req.Title, req.Description, req.Deadline)
	if err != nil {
		if isDeadlineError(err) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("CreateTodo use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	logger.Info("TODO added", port.Fields{"todo_id": todo.ID.String()})
	RespondWithJSON(w, http.StatusOK, toTodoResponse(todo))
}

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "UpdateTodo"})

	todoID, err := uuid.Parse(chi.URLParam(r, "todoId"))
	if err != nil {
		logger.Warn("Invalid todo ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "todoId")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid todo ID in URL")
		return
	}

	var req UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode update todo request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		logger.Warn("Update todo request failed validation", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"todo_id": todoID.String()})
	todo, err := h.updateUC.Execute(r.Context(), todoID, usecases_port.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTodoNotFound):
			WriteJSONError(w, http.StatusNotFound, err.Error())
		case isDeadlineError(err):
			WriteJSONError(w, http.StatusBadRequest, err.Error())
		default:
			handlerLogger.Error("UpdateTodo use case failed", err, nil)
			WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	handlerLogger.Info("TODO updated", nil)
	RespondWithJSON(w, http.StatusOK, toTodoResponse(todo))
}

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DeleteTodo"})

	todoID, err := uuid.Parse(chi.URLParam(r, "todoId"))
	if err != nil {
		logger.Warn("Invalid todo ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "todoId")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid todo ID in URL")
		return
	}

	if err := h.deleteUC.Execute(r.Context(), todoID); err != nil {
		if errors.Is(err, domain.ErrTodoNotFound) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Error("DeleteTodo use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	logger.Info("TODO deleted", port.Fields{"todo_id": todoID.String()})
	w.WriteHeader(http.StatusNoContent)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"state": "ok"})
}
