package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/core/service"
	"github.com/yndnr/tokvault-go/internal/storage"
	"github.com/yndnr/tokvault-go/internal/telemetry/logger"
)

// Handler serves the TokVault HTTP API.
type Handler struct {
	tokenizer *service.Tokenizer
	backupper storage.Backupper
	logger    *slog.Logger
	started   time.Time
	ready     atomic.Bool
	mux       *http.ServeMux
}

// New creates a Handler. backupper may be nil when the backend cannot
// produce backups.
func New(tokenizer *service.Tokenizer, backupper storage.Backupper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		tokenizer: tokenizer,
		backupper: backupper,
		logger:    logger,
		started:   time.Now(),
		mux:       http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetReady marks the vault as loaded (or not) for GET /ready.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("POST /tokenize", h.handleTokenize)
	h.mux.HandleFunc("POST /detokenize", h.handleDetokenize)

	h.mux.HandleFunc("GET /admin/v1/status", h.handleAdminStatus)
	h.mux.HandleFunc("GET /admin/v1/backup", h.handleBackup)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.writeBody(w, status, NewResponse(getRequestID(r), data))
}

// writeBody writes v as JSON without an envelope.
func (h *Handler) writeBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	WriteError(w, getRequestID(r), status, code, message, details)
}

// WriteError writes an error envelope. Middleware uses it too.
func WriteError(w http.ResponseWriter, requestID string, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, details))
}

// writeVaultFailure reports a failed vault operation as a bodyless 500.
func (h *Handler) writeVaultFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("vault operation failed",
		"op", op,
		"request_id", getRequestID(r),
		"code", domain.GetErrorCode(err),
		"error", err,
	)
	w.WriteHeader(http.StatusInternalServerError)
}

// handleServiceError converts non-vault service errors to envelopes.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error(), nil)
		return
	}

	h.logger.Error("internal error", "request_id", getRequestID(r), "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error", nil)
}

func getRequestID(r *http.Request) string {
	return logger.RequestIDFromContext(r.Context())
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasPrefix(code, "TV-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-5010"):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
