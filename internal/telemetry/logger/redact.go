package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// plaintextKeys name attributes that carry user text. Matched exactly.
var plaintextKeys = map[string]bool{
	"word":        true,
	"words":       true,
	"input":       true,
	"text":        true,
	"plaintext":   true,
	"original":    true,
	"detokenized": true,
}

// sensitiveKeyPatterns name credentials. Matched as substrings.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"api_key",
	"apikey",
	"encryption_key",
	"credential",
	"authorization",
	"bearer",
	"dsn",
}

const redactedValue = "***REDACTED***"

// redactSensitive replaces plaintext and credentials in a.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if IsSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, redactedValue)
	}

	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); IsSensitiveValue(s) {
			return slog.String(a.Key, RedactString(s))
		}
	}
	return a
}

// RedactString removes the password from URL-shaped values such as DSNs.
// Other values are returned unchanged.
func RedactString(value string) string {
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return value
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

// IsSensitiveKey reports whether an attribute key names plaintext or a
// credential.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if plaintextKeys[keyLower] {
		return true
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether a value embeds a URL password.
func IsSensitiveValue(value string) bool {
	if !strings.Contains(value, "://") || !strings.Contains(value, "@") {
		return false
	}
	return RedactString(value) != value
}
