// Package httpapi is the thin ambient HTTP entrypoint over the search
// facade: request/response marshalling conventions, CORS, and OpenAPI
// generation are explicitly out of scope (spec.md §1) — handlers do direct
// encoding/json decode/encode over the facade's Go API.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/mmsearch-dev/mmsearch/internal/config"
	"github.com/mmsearch-dev/mmsearch/internal/health"
	xglog "github.com/mmsearch-dev/mmsearch/internal/log"
	"github.com/mmsearch-dev/mmsearch/internal/search"
)

// Server wires the search facade and health manager onto an HTTP router.
type Server struct {
	facade *search.Facade
	health *health.Manager
	cfg    config.HTTPConfig
	auth   Authenticator
	logger zerolog.Logger
}

// New builds a Server. auth may be nil, in which case every request is
// treated as authenticated (see authMiddleware).
func New(facade *search.Facade, healthMgr *health.Manager, cfg config.HTTPConfig, auth Authenticator, logger zerolog.Logger) *Server {
	return &Server{facade: facade, health: healthMgr, cfg: cfg, auth: auth, logger: logger}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(xglog.Middleware())
	r.Use(middleware.Recoverer)
	r.Use(rateLimit(s.cfg.RateLimitPerMin))

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.auth))

		r.Post("/v1/items", s.handleInsertSingle)
		r.Post("/v1/items/batch", s.handleInsertBatch)
		r.Post("/v1/search", s.handleSearch)
		r.Get("/v1/items", s.handleList)
		r.Delete("/v1/items", s.handleDeleteAll)
		r.Get("/v1/tasks/{id}", s.handleTaskStatus)
		r.Get("/v1/stats", s.handleStatistics)
	})

	return otelhttp.NewHandler(r, "mmsearch-api", otelhttp.WithTracerProvider(otel.GetTracerProvider()))
}
