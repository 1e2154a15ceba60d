package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokvault-go/internal/telemetry/logger"
	"github.com/yndnr/tokvault-go/internal/telemetry/metric"
	"github.com/yndnr/tokvault-go/pkg/token"
)

type contextKey string

// ContextKeyStartTime is the context key for request start time.
const ContextKeyStartTime contextKey = "start_time"

// maxRequestIDLength bounds client-supplied X-Request-ID values.
const maxRequestIDLength = 128

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware runs
// first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID adds a unique request ID to each request.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = ulid.Make().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Auth requires apiKey as a bearer token (or X-API-Key header). An empty
// apiKey disables the check.
func Auth(apiKey string) Middleware {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := extractAPIKey(r)
			if presented == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tokvault"`)
				writeError(w, r, http.StatusUnauthorized, domain.ErrUnauthorized.Code, "authentication required")
				return
			}
			if !token.Equal(presented, apiKey) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tokvault", error="invalid_token"`)
				writeError(w, r, http.StatusUnauthorized, domain.ErrUnauthorized.Code, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKey reads Authorization: Bearer <key>, falling back to X-API-Key.
func extractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, key, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(key)
		}
	}
	return r.Header.Get("X-API-Key")
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// RPS is the sustained per-client rate. Zero disables limiting.
	RPS float64

	// Burst is the bucket size.
	Burst int

	// TrustProxyHeaders keys clients by X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool

	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.cfg.IdleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.cfg.IdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RateLimit applies per-client-IP token bucket limiting.
//
// The returned middleware shares one set of buckets across every handler
// it wraps.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	rl := &rateLimiter{
		cfg:       cfg,
		clients:   make(map[string]*clientLimiter),
		lastSweep: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(getClientIP(r, cfg.TrustProxyHeaders), time.Now()) {
				w.Header().Set("Retry-After", "1")
				writeError(w, r, http.StatusTooManyRequests, domain.ErrRateLimited.Code, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records request counts and latency. It must run inside the
// ServeMux so that r.Pattern is set.
func Metrics(m *metric.HTTPMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			m.ObserveRequest(routeLabel(r), r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}

// routeLabel returns the matched pattern path, keeping label cardinality
// bounded.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

// AccessLog logs one line per request. Bodies are never logged.
func AccessLog(log *slog.Logger, trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			startTime, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				startTime = time.Now()
			}

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"bytes", wrapped.written,
				"duration_ms", time.Since(startTime).Milliseconds(),
				"client_ip", getClientIP(r, trustProxy),
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", err,
						"path", r.URL.Path,
					)
					writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps the request body at maxBytes. Zero disables the cap.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(p)
	w.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	handler.WriteError(w, logger.RequestIDFromContext(r.Context()), status, code, message, nil)
}

// getClientIP extracts the client IP from the request. Proxy headers are
// only consulted when trustProxy is set.
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
