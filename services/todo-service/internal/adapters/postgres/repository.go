package postgres_adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/domain"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const todoColumns = "id, title, description, deadline, created_at, updated_at"

// querier is the part of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresTodoRepository stores todos in the todos table.
type PostgresTodoRepository struct {
	db querier
}

func NewPostgresTodoRepository(pool *pgxpool.Pool) (*PostgresTodoRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresTodoRepository{db: pool}, nil
}

func (r *PostgresTodoRepository) logger(ctx context.Context, method string, fields port.Fields) port.LoggerPort {
	l := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresTodoRepository",
		"method":    method,
	})
	if len(fields) > 0 {
		l = l.WithFields(fields)
	}
	return l
}

func (r *PostgresTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	repoLogger := r.logger(ctx, "Create", port.Fields{"todo_id": todo.ID.String()})
	repoLogger.Debug("Creating new todo in DB", nil)

	query := "INSERT INTO todos (" + todoColumns + ") VALUES ($1, $2, $3, $4, $5, $6)"
	_, err := r.db.Exec(ctx, query,
		todo.ID,
		todo.Title,
		todo.Description,
		todo.Deadline,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		repoLogger.Error("Failed to create todo", err, port.Fields{"query": query})
		return fmt.Errorf("failed to create todo: %w", err)
	}

	repoLogger.Debug("Todo created successfully", nil)
	return nil
}

func (r *PostgresTodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	repoLogger := r.logger(ctx, "Update", port.Fields{"todo_id": todo.ID.String()})
	repoLogger.Debug("Updating todo in DB", nil)

	query := `
		UPDATE todos
		SET title = $2, description = $3, deadline = $4, updated_at = $5
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query,
		todo.ID,
		todo.Title,
		todo.Description,
		todo.Deadline,
		todo.UpdatedAt,
	)
	if err != nil {
		repoLogger.Error("Failed to update todo", err, port.Fields{"query": query})
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		repoLogger.Warn("Update failed: todo not found", nil)
		return domain.ErrTodoNotFound
	}

	repoLogger.Debug("Todo updated successfully", nil)
	return nil
}

func (r *PostgresTodoRepository) Delete(ctx context.Context, todoID uuid.UUID) error {
	repoLogger := r.logger(ctx, "Delete", port.Fields{"todo_id": todoID.String()})

	cmdTag, err := r.db.Exec(ctx, "DELETE FROM todos WHERE id = $1", todoID)
	if err != nil {
		repoLogger.Error("Failed to delete todo", err, nil)
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		repoLogger.Warn("Delete failed: todo not found", nil)
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *PostgresTodoRepository) FindByID(ctx context.Context, todoID uuid.UUID) (*domain.Todo, error) {
	repoLogger := r.logger(ctx, "FindByID", port.Fields{"todo_id": todoID.String()})
	repoLogger.Debug("Finding todo by ID.", nil)

	query := "SELECT " + todoColumns + " FROM todos WHERE id = $1"
	todo, err := scanTodo(r.db.QueryRow(ctx, query, todoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			repoLogger.Warn("Todo not found.", nil)
			return nil, domain.ErrTodoNotFound
		}
		repoLogger.Error("Failed to find todo by ID", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to find todo by id: %w", err)
	}
	return todo, nil
}

// FindAll returns every todo, oldest first.
func (r *PostgresTodoRepository) FindAll(ctx context.Context) ([]domain.Todo, error) {
	repoLogger := r.logger(ctx, "FindAll", nil)

	query := "SELECT " + todoColumns + " FROM todos ORDER BY created_at"
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		repoLogger.Error("Failed to query todos", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			repoLogger.Error("Failed to scan todo row", err, nil)
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		repoLogger.Error("Error during todos iteration", err, nil)
		return nil, fmt.Errorf("error during todos iteration: %w", err)
	}

	repoLogger.Debug("Todos loaded", port.Fields{"count": len(todos)})
	return todos, nil
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var todo domain.Todo
	if err := row.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&todo.Deadline,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	todo.Deadline = todo.Deadline.UTC()
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return &todo, nil
}
