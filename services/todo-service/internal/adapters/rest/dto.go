package rest

import (
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
)

type CreateTodoRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Deadline    string `json:"deadline" validate:"required"`
}

type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1,max=2000"`
	Deadline    string  `json:"deadline" validate:"required"`
}

type TodoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Envelope is the success body: {"status": 200, "data": ...}.
type Envelope struct {
	Status int         `json:"status"`
	Data   interface{} `json:"data"`
}

func toTodoResponse(todo *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID.String(),
		Title:       todo.Title,
		Description: todo.Description,
		Deadline:    todo.Deadline,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}
