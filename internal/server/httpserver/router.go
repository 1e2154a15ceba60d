package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/tokvault-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokvault-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the API routes.
	Handler *handler.Handler

	// Metrics exposes /metrics and records HTTP metrics. Optional.
	Metrics *metric.Registry

	// Logger for access and panic logging.
	Logger *slog.Logger

	// APIKey, when set, guards vault, admin and metrics routes.
	APIKey string

	// RateLimit applies to vault and admin routes.
	RateLimit RateLimitConfig

	// MaxBodyBytes caps vault request bodies.
	MaxBodyBytes int64

	// EnableAccessLog logs one line per vault and admin request.
	EnableAccessLog bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit:       RateLimitConfig{RPS: 200, Burst: 400},
		MaxBodyBytes:    1 << 20,
		EnableAccessLog: true,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var httpMetrics *metric.HTTPMetrics
	if cfg.Metrics != nil {
		httpMetrics = cfg.Metrics.HTTP
	}

	h := cfg.Handler
	limiter := RateLimit(cfg.RateLimit)
	auth := Auth(cfg.APIKey)

	base := []Middleware{Recover(log), RequestID(), Metrics(httpMetrics)}

	protected := append(base[:len(base):len(base)], limiter)
	if cfg.EnableAccessLog {
		protected = append(protected, AccessLog(log, cfg.RateLimit.TrustProxyHeaders))
	}
	protected = append(protected, auth)

	mux := http.NewServeMux()

	// Probes stay reachable without credentials and are never throttled.
	probes := Chain(h, base...)
	mux.Handle("GET /health", probes)
	mux.Handle("GET /ready", probes)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(log), RequestID(), auth))
	}

	vault := Chain(h, append(protected, BodyLimit(cfg.MaxBodyBytes))...)
	mux.Handle("POST /tokenize", vault)
	mux.Handle("POST /detokenize", vault)

	admin := Chain(h, protected...)
	mux.Handle("GET /admin/v1/status", admin)
	mux.Handle("GET /admin/v1/backup", admin)

	return mux
}
