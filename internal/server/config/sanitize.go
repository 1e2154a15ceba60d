package config

import (
	"strings"

	"github.com/yndnr/tokvault-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with secrets masked.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Server.HTTP.APIKey = maskSecret(sanitized.Server.HTTP.APIKey)
	sanitized.Security.EncryptionKey = maskSecret(sanitized.Security.EncryptionKey)
	sanitized.Storage.Redis.Password = maskSecret(sanitized.Storage.Redis.Password)
	sanitized.Storage.SQL.DSN = maskDSN(sanitized.Storage.SQL.DSN)

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskDSN hides the password of URL and MySQL style DSNs.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if strings.Contains(dsn, "://") {
		return logger.RedactString(dsn)
	}
	// user:password@tcp(host:port)/db
	at := strings.LastIndex(dsn, "@")
	colon := strings.Index(dsn, ":")
	if at < 0 || colon < 0 || colon > at {
		return dsn
	}
	return dsn[:colon+1] + "xxxxx" + dsn[at:]
}
