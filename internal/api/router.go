package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter mounts the API routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/users/{userID}/tasks", h.ListTasks)
		r.Post("/users/{userID}/tasks", h.CreateTask)
		r.Get("/users/{userID}/rules", h.ListRules)
		r.Post("/users/{userID}/rules", h.CreateRule)
		r.Post("/tasks/{taskID}/status", h.UpdateTaskStatus)
		r.Get("/tasks/{taskID}", h.GetTask)
		r.Delete("/tasks/{taskID}", h.DeleteTask)
		r.Delete("/rules/{ruleID}", h.DeleteRule)
		r.Post("/cycles", h.RunCycle)
		r.Get("/cycles/last", h.LastCycle)
	})
	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
