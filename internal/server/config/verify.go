package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/tokvault-go/internal/core/service"
	"github.com/yndnr/tokvault-go/internal/storage/sqlstore"
	"github.com/yndnr/tokvault-go/internal/telemetry/logger"
	"github.com/yndnr/tokvault-go/pkg/crypto/adaptive"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if _, err := service.ParseDetokenizePolicy(cfg.Vault.DetokenizePolicy); err != nil {
		return errors.New("vault.detokenize_policy must be drop or strict")
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}

	if err := verifyTLSFiles("server.http", cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile, cfg.HTTP.ClientCAFile); err != nil {
		return err
	}

	if cfg.HTTP.RateLimit.RPS < 0 || cfg.HTTP.RateLimit.Burst < 0 {
		return errors.New("server.http.rate_limit values must not be negative")
	}
	if cfg.HTTP.RateLimit.RPS > 0 && cfg.HTTP.RateLimit.Burst < 1 {
		return errors.New("server.http.rate_limit.burst must be at least 1 when rps is set")
	}
	if cfg.HTTP.MaxBodyBytes < 0 {
		return errors.New("server.http.max_body_bytes must not be negative")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	return verifyRESP(&cfg.RESP)
}

func verifyRESP(cfg *RESPConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.resp.addr: %w", err)
	}
	if err := verifyTLSFiles("server.resp", cfg.TLSCertFile, cfg.TLSKeyFile, cfg.ClientCAFile); err != nil {
		return err
	}
	if cfg.CommandsPerSecond < 0 || cfg.MaxConns < 0 || cfg.IdleTimeout < 0 {
		return errors.New("server.resp limits must not be negative")
	}
	return nil
}

// verifyTLSFiles checks a listener's certificate pair and optional client CA.
func verifyTLSFiles(section, certFile, keyFile, clientCAFile string) error {
	if (certFile == "") != (keyFile == "") {
		return fmt.Errorf("%s.tls_cert_file and tls_key_file must be set together", section)
	}
	if clientCAFile != "" && certFile == "" {
		return fmt.Errorf("%s.client_ca_file requires tls_cert_file and tls_key_file", section)
	}
	for _, f := range []string{certFile, keyFile, clientCAFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("%s tls file: %w", section, err)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case BackendBadger:
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger backend")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			return errors.New("cannot create data directory: " + err.Error())
		}
	case BackendMemory:
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required for the redis backend")
		}
		if cfg.Redis.DB < 0 || cfg.Redis.WaitReplicas < 0 {
			return errors.New("storage.redis.db and wait_replicas must not be negative")
		}
		if cfg.Redis.TLS.CAFile != "" {
			if !cfg.Redis.TLS.Enabled {
				return errors.New("storage.redis.tls.ca_file requires storage.redis.tls.enabled")
			}
			if _, err := os.Stat(cfg.Redis.TLS.CAFile); err != nil {
				return fmt.Errorf("storage.redis.tls.ca_file: %w", err)
			}
		}
	case BackendPostgres, BackendMySQL:
		if cfg.SQL.DSN == "" {
			return fmt.Errorf("storage.sql.dsn is required for the %s backend", cfg.Backend)
		}
		if cfg.SQL.Table != "" && !sqlstore.ValidTableName(cfg.SQL.Table) {
			return fmt.Errorf("storage.sql.table %q is not a valid identifier", cfg.SQL.Table)
		}
	default:
		return fmt.Errorf("storage.backend must be one of %s, got %q",
			strings.Join([]string{BackendBadger, BackendMemory, BackendRedis, BackendPostgres, BackendMySQL}, ", "),
			cfg.Backend)
	}
	return verifySnapshot(&cfg.Snapshot)
}

func verifySnapshot(cfg *SnapshotStorage) error {
	if cfg.Interval < 0 {
		return errors.New("storage.snapshot.interval must not be negative")
	}
	if cfg.Interval > 0 && cfg.Dir == "" {
		return errors.New("storage.snapshot.dir is required when storage.snapshot.interval is set")
	}
	if cfg.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return errors.New("cannot create snapshot directory: " + err.Error())
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if _, err := adaptive.ParseCipherType(cfg.Cipher); err != nil {
		return fmt.Errorf("security.cipher: %w", err)
	}
	if cfg.EncryptionKey == "" {
		return nil
	}
	if _, err := adaptive.FromHexKey(cfg.EncryptionKey, cfg.Cipher); err != nil {
		return fmt.Errorf("security.encryption_key: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
}
