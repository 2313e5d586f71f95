// Package api exposes the aggregator over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Sternrassler/pokeapi-ranker/pkg/metrics"
	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
)

// Service is the aggregator surface the handlers need.
// *aggregator.Service implements it.
type Service interface {
	GetAll(ctx context.Context) ([]pokemon.Pokemon, error)
	TopByWeight(ctx context.Context, limit int) ([]pokemon.Pokemon, error)
	TopByHeight(ctx context.Context, limit int) ([]pokemon.Pokemon, error)
	TopByExperience(ctx context.Context, limit int) ([]pokemon.Pokemon, error)
	GetOne(ctx context.Context, nameOrID string) (*pokemon.Pokemon, error)
	Invalidate(ctx context.Context)
	Ready(ctx context.Context) error
}

// Config configures the HTTP surface.
type Config struct {
	// DefaultLimit applies when a ranking request has no ?limit=.
	DefaultLimit int

	// MaxLimit is the largest accepted ?limit=.
	MaxLimit int

	// RateLimitRequests per RateLimitWindow and client IP.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:      5,
		MaxLimit:          100,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Service, cfg Config) http.Handler {
	def := DefaultConfig()
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = max(def.MaxLimit, cfg.DefaultLimit)
	}
	if cfg.RateLimitRequests < 1 {
		cfg.RateLimitRequests = def.RateLimitRequests
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = def.RateLimitWindow
	}

	h := &Handler{svc: svc, config: cfg}

	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())  // X-Request-ID header and logging context
	r.Use(chimiddleware.RealIP)    // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer) // Recover from panics
	r.Use(AccessLog())

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/pokemon", func(r chi.Router) {
		r.Use(RateLimit(cfg))
		r.Use(PrometheusMetrics)

		r.Get("/", h.GetAll)
		r.Get("/heaviest", h.Heaviest)
		r.Get("/highest", h.Highest)
		r.Get("/most-experienced", h.MostExperienced)
		r.Delete("/cache", h.InvalidateCache)
		r.Get("/{nameOrId}", h.GetOne)
	})

	return r
}
