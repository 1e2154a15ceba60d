// Package main provides the entry point for tokvault-server.
//
// tokvault-server serves the token vault over HTTP:
//
//   - POST /tokenize, POST /detokenize
//   - GET /health, GET /ready
//   - GET /admin/v1/status, GET /admin/v1/backup
//   - GET /metrics
//
// With server.resp.enabled it also answers RESP2 clients (TV.TOKENIZE,
// TV.DETOKENIZE, DBSIZE, INFO) on a second listener. When storage.snapshot
// has a dir and interval, portable vault snapshots are written periodically
// and once more on shutdown.
//
// Usage:
//
//	tokvault-server -config /etc/tokvault/server.yaml
//	TOKVAULT_STORAGE__BACKEND=memory tokvault-server
package main
