// Package logger provides structured logging for TokVault.
//
//   - logger.go: log/slog setup, global level, default logger
//   - context.go: request ID propagation
//   - redact.go: plaintext and credential redaction
//
// Words are the data TokVault exists to hide, so attributes carrying
// plaintext (word, input, text, ...) never reach the output in clear.
package logger
