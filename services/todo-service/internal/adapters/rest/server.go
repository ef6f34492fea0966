package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/httplog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the todo-service REST API.
type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

// NewRouter mounts the todo API routes.
func NewRouter(handlers *TodoHandler, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(httplog.Middleware(baseLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", Healthz)
	r.Get("/getAllTodos", handlers.GetAllTodos)
	r.Post("/add", handlers.CreateTodo)
	r.Put("/update/{todoId}", handlers.UpdateTodo)
	r.Delete("/delete/{todoId}", handlers.DeleteTodo)

	return r
}

func NewServer(port string, handlers *TodoHandler, baseLogger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           NewRouter(handlers, baseLogger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: baseLogger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
