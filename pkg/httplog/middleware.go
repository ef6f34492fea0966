// Package httplog attaches a request scoped logger and trace id to every
// HTTP request.
package httplog

import (
	"net/http"
	"time"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/eliyaaki/todo-micro-services/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Middleware reuses the caller's x-trace-id or creates one, echoes it in the
// response and logs the outcome. Handlers get the trace scoped logger from
// contextkeys.LoggerFromContext.
func Middleware(base logger.LoggerPort) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(contextkeys.TraceHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			traceLogger := base.WithFields(logger.Fields{"trace_id": traceID})
			requestLogger := traceLogger.WithFields(logger.Fields{
				"http_method": r.Method,
				"http_path":   r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

			ctx := contextkeys.ContextWithLogger(r.Context(), traceLogger)
			ctx = contextkeys.ContextWithTraceID(ctx, traceID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set(contextkeys.TraceHeader, traceID)
			started := time.Now()

			requestLogger.Debug("Request started", nil)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := logger.Fields{
				"status_code":   status,
				"bytes_written": ww.BytesWritten(),
				"duration_ms":   time.Since(started).Milliseconds(),
			}
			switch {
			case status >= http.StatusInternalServerError:
				requestLogger.Error("Request failed", nil, fields)
			case status >= http.StatusBadRequest:
				requestLogger.Warn("Request rejected", fields)
			default:
				requestLogger.Info("Request finished", fields)
			}
		})
	}
}
