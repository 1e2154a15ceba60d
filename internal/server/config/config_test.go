package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Server.HTTP.RateLimit.RPS != DefaultRateLimitRPS {
		t.Errorf("RateLimit.RPS = %v, want %v", cfg.Server.HTTP.RateLimit.RPS, DefaultRateLimitRPS)
	}
	if cfg.Storage.Backend != BackendBadger {
		t.Errorf("Backend = %q, want %q", cfg.Storage.Backend, BackendBadger)
	}
	if !cfg.Storage.SyncWrites {
		t.Error("SyncWrites should be enabled by default")
	}
	if cfg.Storage.SQL.Table != DefaultSQLTable {
		t.Errorf("SQL.Table = %q, want %q", cfg.Storage.SQL.Table, DefaultSQLTable)
	}
	if cfg.Vault.DetokenizePolicy != "drop" {
		t.Errorf("DetokenizePolicy = %q, want drop", cfg.Vault.DetokenizePolicy)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Server.RESP.Enabled || cfg.Server.RESP.Addr != DefaultRESPAddr {
		t.Errorf("RESP = %+v, want disabled on %s", cfg.Server.RESP, DefaultRESPAddr)
	}
}

func validConfig(t *testing.T) *ServerConfig {
	t.Helper()
	cfg := Default()
	cfg.Storage.DataDir = t.TempDir()
	return cfg
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"defaults", func(*ServerConfig) {}, ""},
		{"memory backend", func(c *ServerConfig) { c.Storage.Backend = BackendMemory }, ""},
		{"missing addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "" }, "server.http.addr"},
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "localhost" }, "server.http.addr"},
		{"half tls", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "cert.pem" }, "set together"},
		{"missing tls files", func(c *ServerConfig) {
			c.Server.HTTP.TLSCertFile = "/nonexistent/cert.pem"
			c.Server.HTTP.TLSKeyFile = "/nonexistent/key.pem"
		}, "tls file"},
		{"negative rps", func(c *ServerConfig) { c.Server.HTTP.RateLimit.RPS = -1 }, "rate_limit"},
		{"zero burst", func(c *ServerConfig) { c.Server.HTTP.RateLimit.Burst = 0 }, "burst"},
		{"rate limit disabled", func(c *ServerConfig) {
			c.Server.HTTP.RateLimit = RateLimitConfig{}
		}, ""},
		{"client ca without tls", func(c *ServerConfig) { c.Server.HTTP.ClientCAFile = "ca.pem" }, "client_ca_file"},
		{"resp disabled bad addr", func(c *ServerConfig) { c.Server.RESP.Addr = "nope" }, ""},
		{"resp bad addr", func(c *ServerConfig) {
			c.Server.RESP.Enabled = true
			c.Server.RESP.Addr = "nope"
		}, "server.resp.addr"},
		{"resp half tls", func(c *ServerConfig) {
			c.Server.RESP.Enabled = true
			c.Server.RESP.TLSKeyFile = "key.pem"
		}, "server.resp.tls_cert_file"},
		{"resp negative rate", func(c *ServerConfig) {
			c.Server.RESP.Enabled = true
			c.Server.RESP.CommandsPerSecond = -1
		}, "server.resp limits"},
		{"redis ca without tls", func(c *ServerConfig) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.TLS.CAFile = "ca.pem"
		}, "tls.enabled"},
		{"zero shutdown timeout", func(c *ServerConfig) { c.Server.ShutdownTimeout = 0 }, "shutdown_timeout"},
		{"snapshot interval without dir", func(c *ServerConfig) {
			c.Storage.Snapshot.Interval = time.Hour
		}, "storage.snapshot.dir"},
		{"negative snapshot interval", func(c *ServerConfig) {
			c.Storage.Snapshot.Interval = -time.Second
		}, "storage.snapshot.interval"},
		{"unknown backend", func(c *ServerConfig) { c.Storage.Backend = "etcd" }, "storage.backend"},
		{"badger without dir", func(c *ServerConfig) { c.Storage.DataDir = "" }, "data_dir"},
		{"redis without addr", func(c *ServerConfig) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Addr = ""
		}, "storage.redis.addr"},
		{"postgres without dsn", func(c *ServerConfig) { c.Storage.Backend = BackendPostgres }, "storage.sql.dsn"},
		{"mysql bad table", func(c *ServerConfig) {
			c.Storage.Backend = BackendMySQL
			c.Storage.SQL.DSN = "u:p@tcp(localhost:3306)/db"
			c.Storage.SQL.Table = "vault; DROP TABLE x"
		}, "storage.sql.table"},
		{"valid key", func(c *ServerConfig) {
			c.Security.EncryptionKey = strings.Repeat("ab", 32)
		}, ""},
		{"key not hex", func(c *ServerConfig) { c.Security.EncryptionKey = "not-hex" }, "security.encryption_key"},
		{"key wrong size", func(c *ServerConfig) {
			c.Security.EncryptionKey = strings.Repeat("ab", 10)
		}, "security.encryption_key"},
		{"chacha short key", func(c *ServerConfig) {
			c.Security.Cipher = "chacha20-poly1305"
			c.Security.EncryptionKey = strings.Repeat("ab", 16)
		}, "security.encryption_key"},
		{"unknown cipher", func(c *ServerConfig) { c.Security.Cipher = "rot13" }, "security.cipher"},
		{"strict policy", func(c *ServerConfig) { c.Vault.DetokenizePolicy = "strict" }, ""},
		{"bad policy", func(c *ServerConfig) { c.Vault.DetokenizePolicy = "ignore" }, "detokenize_policy"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Verify() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Verify() succeeded, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTP.APIKey = "tvk_live_0123456789abcdef"
	cfg.Security.EncryptionKey = strings.Repeat("ab", 32)
	cfg.Storage.Redis.Password = "redis-password"
	cfg.Storage.SQL.DSN = "postgres://vault:pg-secret@db:5432/tokvault"

	sanitized := Sanitize(cfg)

	if cfg.Server.HTTP.APIKey != "tvk_live_0123456789abcdef" {
		t.Error("Sanitize modified the original config")
	}
	for name, got := range map[string]string{
		"api_key":        sanitized.Server.HTTP.APIKey,
		"encryption_key": sanitized.Security.EncryptionKey,
		"redis password": sanitized.Storage.Redis.Password,
		"dsn":            sanitized.Storage.SQL.DSN,
	} {
		for _, secret := range []string{"0123456789abcdef", strings.Repeat("ab", 32), "redis-password", "pg-secret"} {
			if strings.Contains(got, secret) {
				t.Errorf("%s still contains secret: %q", name, got)
			}
		}
	}
	if sanitized.Storage.SQL.DSN != "postgres://vault:xxxxx@db:5432/tokvault" {
		t.Errorf("DSN = %q", sanitized.Storage.SQL.DSN)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "****"},
		{"abcdefghij", "ab******ij"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"vault:secret@tcp(db:3306)/tokvault", "vault:xxxxx@tcp(db:3306)/tokvault"},
		{"postgres://vault@db/tokvault", "postgres://vault@db/tokvault"},
		{"tcp(db:3306)/tokvault", "tcp(db:3306)/tokvault"},
	}
	for _, tt := range tests {
		if got := maskDSN(tt.in); got != tt.want {
			t.Errorf("maskDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokvault.yaml")
	content := `
server:
  http:
    addr: "0.0.0.0:9090"
    read_timeout: 5s
storage:
  backend: memory
vault:
  detokenize_policy: strict
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOKVAULT_LOG__LEVEL", "warn")
	t.Setenv("TOKVAULT_STORAGE__REDIS__DB", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "0.0.0.0:9090" {
		t.Errorf("Addr = %q", cfg.Server.HTTP.Addr)
	}
	if cfg.Server.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.HTTP.ReadTimeout)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Vault.DetokenizePolicy != "strict" {
		t.Errorf("DetokenizePolicy = %q", cfg.Vault.DetokenizePolicy)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, env should override file", cfg.Log.Level)
	}
	if cfg.Storage.Redis.DB != 3 {
		t.Errorf("Redis.DB = %d", cfg.Storage.Redis.DB)
	}
	// Untouched values keep their defaults.
	if cfg.Server.HTTP.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("WriteTimeout = %v", cfg.Server.HTTP.WriteTimeout)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("TOKVAULT_STORAGE__BACKEND", "floppy")
	if _, err := Load(""); err == nil {
		t.Fatal("Load() should reject an unknown backend")
	}
	cfg, err := LoadUnverified("")
	if err != nil {
		t.Fatalf("LoadUnverified() error = %v", err)
	}
	if cfg.Storage.Backend != "floppy" {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
}
