package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factorstd/internal/config"
	"factorstd/internal/middleware"
	"factorstd/internal/standardize"
)

// NewRouter assembles the service router: the standardize API, health, and
// Prometheus metrics, behind the standard middleware chain.
func NewRouter(engine *standardize.Engine, logger *slog.Logger, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	if cfg.Server.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}

	handler := NewStandardizeHandler(engine, logger, cfg.Standardize)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/standardize", handler.Standardize)
		r.Get("/health", GetHealth)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// GetHealth returns basic health status
func GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
