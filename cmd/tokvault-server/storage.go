package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yndnr/tokvault-go/internal/infra/tlsroots"
	"github.com/yndnr/tokvault-go/internal/server/config"
	"github.com/yndnr/tokvault-go/internal/storage"
	"github.com/yndnr/tokvault-go/internal/storage/codec"
	"github.com/yndnr/tokvault-go/internal/storage/memory"
	"github.com/yndnr/tokvault-go/internal/storage/redisstore"
	"github.com/yndnr/tokvault-go/internal/storage/sqlstore"
	"github.com/yndnr/tokvault-go/internal/telemetry/metric"
	"github.com/yndnr/tokvault-go/pkg/crypto/adaptive"
)

// initStorage opens the configured vault backend.
func initStorage(ctx context.Context, cfg *config.ServerConfig, reg *metric.Registry, log *slog.Logger) (storage.Backend, error) {
	blobCodec, err := newCodec(&cfg.Security)
	if err != nil {
		return nil, err
	}

	sc := cfg.Storage
	switch sc.Backend {
	case config.BackendBadger:
		kv := storage.DefaultKVConfig(sc.DataDir)
		kv.Badger.SyncWrites = sc.SyncWrites
		if sc.GCInterval > 0 {
			kv.Badger.GCInterval = sc.GCInterval.String()
		}
		engine, err := storage.NewBadgerEngine(kv, log)
		if err != nil {
			return nil, err
		}
		engine.RegisterMetrics(reg.Registerer())
		return storage.NewBlobBackend(sc.Backend, engine, blobCodec, storage.WithLogger(log)), nil

	case config.BackendMemory:
		log.Warn("memory backend selected; the vault is lost on restart")
		return storage.NewBlobBackend(sc.Backend, memory.New(), blobCodec, storage.WithLogger(log)), nil

	case config.BackendRedis:
		rc := redisstore.Config{
			Addr:         sc.Redis.Addr,
			Password:     sc.Redis.Password,
			DB:           sc.Redis.DB,
			WaitReplicas: sc.Redis.WaitReplicas,
		}
		if sc.Redis.TLS.Enabled {
			rc.TLSConfig, err = tlsroots.ClientConfig(sc.Redis.TLS.CAFile, sc.Redis.TLS.ServerName)
			if err != nil {
				return nil, fmt.Errorf("storage.redis.tls: %w", err)
			}
		}
		store, err := redisstore.Open(ctx, rc)
		if err != nil {
			return nil, err
		}
		return storage.NewBlobBackend(sc.Backend, store, blobCodec,
			storage.WithVaultKey(sc.Redis.Key),
			storage.WithLogger(log)), nil

	case config.BackendPostgres, config.BackendMySQL:
		if blobCodec.Sealed() {
			log.Warn("security.encryption_key does not apply to SQL backends; rows are stored as plain token/word pairs")
		}
		dialect, err := sqlstore.ParseDialect(sc.Backend)
		if err != nil {
			return nil, err
		}
		return sqlstore.Open(ctx, sqlstore.Config{
			Dialect:      dialect,
			DSN:          sc.SQL.DSN,
			Table:        sc.SQL.Table,
			MaxOpenConns: sc.SQL.MaxOpenConns,
		}, log)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}

// newCodec seals blobs when an encryption key is configured.
func newCodec(sec *config.SecuritySection) (*codec.Codec, error) {
	if sec.EncryptionKey == "" {
		return codec.New(), nil
	}
	cipher, err := adaptive.FromHexKey(sec.EncryptionKey, sec.Cipher)
	if err != nil {
		return nil, fmt.Errorf("security.encryption_key: %w", err)
	}
	return codec.New(codec.WithCipher(cipher)), nil
}
