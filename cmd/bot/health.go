package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"daily-joke/pkg/logger"
)

const readyTimeout = 2 * time.Second

// readinessCheck reports whether a dependency is usable.
type readinessCheck func(ctx context.Context) error

// newHealthRouter serves liveness on endpoint and readiness on /readyz.
func newHealthRouter(endpoint string, ready readinessCheck) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(endpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
		defer cancel()
		if err := ready(ctx); err != nil {
			logger.Warn("Readiness check failed", logger.Err(err))
			http.Error(w, "favorites store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	return r
}
