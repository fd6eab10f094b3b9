// Package api wires the HTTP surface: routing, middleware and handlers.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/askdb/askdb/internal/api/handlers"
	"github.com/askdb/askdb/internal/api/middleware"
)

// RouterParams configures NewRouter. APIKey may be empty (auth disabled).
type RouterParams struct {
	Query    *handlers.QueryHandler
	Training *handlers.TrainingHandler
	Health   *handlers.HealthHandler
	APIKey   string
	Logger   *slog.Logger
}

// NewRouter builds the service router. The health check is public; everything
// under /api requires the service API key when one is configured.
func NewRouter(p RouterParams) http.Handler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.CORS)

	r.Get("/health", p.Health.Check)

	r.Route("/api/v0", func(r chi.Router) {
		r.Use(middleware.Auth(p.APIKey))

		r.Get("/text-to-sql", p.Query.TextToSQL)
		r.Post("/train", p.Training.Add)
		r.Get("/get_training_data", p.Training.List)
		r.Post("/remove_training_data", p.Training.Remove)
	})

	return r
}
