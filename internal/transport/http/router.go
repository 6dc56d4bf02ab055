package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credmint/internal/platform/middleware"
)

const defaultRequestTimeout = 30 * time.Second

// Registrar mounts a handler's routes.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig collects the handlers and middleware the router mounts.
// Nil handlers are skipped.
type RouterConfig struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	HTTPMetrics    *middleware.HTTPMetrics
	// Gatherer backs /metrics; defaults to the global registry.
	Gatherer prometheus.Gatherer

	Health       Registrar
	VerifyConfig Registrar
	Dashboard    Registrar
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	// The proof service may post callbacks URL-encoded, so these routes
	// accept any content type.
	if cfg.VerifyConfig != nil {
		cfg.VerifyConfig.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		if cfg.Dashboard != nil {
			cfg.Dashboard.Register(r)
		}
	})
	return r
}
