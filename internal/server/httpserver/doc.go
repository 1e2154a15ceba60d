// Package httpserver provides the HTTP/HTTPS server for TokVault.
//
// Routes:
//
//   - Vault: POST /tokenize, POST /detokenize
//   - Admin: GET /admin/v1/status, GET /admin/v1/backup
//   - Health: GET /health, GET /ready, GET /metrics
//
// Middleware chain: Recover, RequestID, RateLimit, Metrics, AccessLog,
// Auth, BodyLimit. Health and readiness skip rate limiting and auth.
package httpserver
