package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port"

	"github.com/eliyaaki/todo-micro-services/pkg/httplog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

// NewRouter serves the health probe and, when handlers is not nil, the
// notification stream.
func NewRouter(handlers *NotificationHandler, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(httplog.Middleware(baseLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Cache-Control", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", Healthz)
	if handlers != nil {
		r.Route("/api/v1/notifications", func(r chi.Router) {
			r.Get("/subscribe", handlers.SubscribeToNotifications)
		})
	}

	return r
}

func NewServer(port string, handlers *NotificationHandler, baseLogger port.LoggerPort) *Server {
	return &Server{
		// no WriteTimeout: SSE connections stay open
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
