package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func logJSON(t *testing.T, args ...any) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("test", args...)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return entry
}

func TestRedactSensitive_Plaintext(t *testing.T) {
	for _, key := range []string{"word", "input", "text", "detokenized", "Original"} {
		t.Run(key, func(t *testing.T) {
			entry := logJSON(t, key, "My age is 43.")
			if entry[key] != redactedValue {
				t.Errorf("%s = %v, want %s", key, entry[key], redactedValue)
			}
		})
	}
}

func TestRedactSensitive_Credentials(t *testing.T) {
	entry := logJSON(t,
		"api_key", "s3cr3t",
		"encryption_key", "00112233",
		"redis_password", "hunter2",
		"storage_dsn", "user:pass@tcp(db:3306)/vault",
	)

	for _, key := range []string{"api_key", "encryption_key", "redis_password", "storage_dsn"} {
		if entry[key] != redactedValue {
			t.Errorf("%s = %v, want %s", key, entry[key], redactedValue)
		}
	}
}

func TestRedactSensitive_EmptyValueKept(t *testing.T) {
	entry := logJSON(t, "api_key", "")
	if entry["api_key"] != "" {
		t.Errorf("api_key = %v, want empty string", entry["api_key"])
	}
}

func TestRedactSensitive_NonStringPlaintextKey(t *testing.T) {
	entry := logJSON(t, "input", 42)
	if entry["input"] != redactedValue {
		t.Errorf("input = %v, want %s", entry["input"], redactedValue)
	}
}

func TestRedactSensitive_URLPassword(t *testing.T) {
	entry := logJSON(t, "target", "postgres://vault:topsecret@db:5432/tokvault")

	got, _ := entry["target"].(string)
	if strings.Contains(got, "topsecret") {
		t.Errorf("password leaked: %s", got)
	}
	if !strings.Contains(got, "vault:xxxxx@db:5432") {
		t.Errorf("target = %s, want user and host kept", got)
	}
}

func TestRedactSensitive_SafeFieldsKept(t *testing.T) {
	entry := logJSON(t,
		"backend", "badger",
		"entries", 12,
		"token", "AbCdEfGhIjKlMnOp",
		"addr", "redis://cache:6379/0",
	)

	if entry["backend"] != "badger" {
		t.Errorf("backend = %v", entry["backend"])
	}
	if entry["entries"] != float64(12) {
		t.Errorf("entries = %v", entry["entries"])
	}
	if entry["token"] != "AbCdEfGhIjKlMnOp" {
		t.Errorf("token = %v, tokens are not secret", entry["token"])
	}
	if entry["addr"] != "redis://cache:6379/0" {
		t.Errorf("addr = %v", entry["addr"])
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := redactSensitive(slog.Group("request",
		slog.String("input", "private words"),
		slog.String("method", "POST"),
	))

	attrs := a.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("request.input = %s, want %s", attrs[0].Value.String(), redactedValue)
	}
	if attrs[1].Value.String() != "POST" {
		t.Errorf("request.method = %s, want POST", attrs[1].Value.String())
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h/db", "postgres://u:xxxxx@h/db"},
		{"redis://h:6379", "redis://h:6379"},
		{"redis://user@h:6379", "redis://user@h:6379"},
		{"plain text", "plain text"},
	}

	for _, tt := range tests {
		if got := RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"word", true},
		{"WORD", true},
		{"keyword", false},
		{"api_key", true},
		{"X-Authorization", true},
		{"sql_dsn", true},
		{"token", false},
		{"backend", false},
	}

	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestIsSensitiveValue(t *testing.T) {
	if !IsSensitiveValue("mysql://root:pw@db/x") {
		t.Error("URL with password should be sensitive")
	}
	if IsSensitiveValue("http://example.com/a@b") {
		t.Error("URL without userinfo should not be sensitive")
	}
}
