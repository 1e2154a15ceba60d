// Package redisstore provides a Redis-backed BlobStore.
//
// The vault blob is a single string value. Durability follows the Redis
// server's persistence settings (appendonly/appendfsync); when
// WaitReplicas is set, Sync additionally blocks until that many replicas
// have acknowledged the write.
package redisstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/tokvault-go/internal/storage"
)

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int

	// WaitReplicas is the number of replicas Sync waits for. Zero disables WAIT.
	WaitReplicas int

	// WaitTimeout bounds each WAIT. Default: 1s
	WaitTimeout time.Duration

	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config
}

// Store is a BlobStore over a Redis client.
type Store struct {
	client       redis.UniversalClient
	waitReplicas int
	waitTimeout  time.Duration
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: cfg.TLSConfig,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	return New(client, cfg), nil
}

// New wraps an existing client.
func New(client redis.UniversalClient, cfg Config) *Store {
	timeout := cfg.WaitTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Store{
		client:       client,
		waitReplicas: cfg.WaitReplicas,
		waitTimeout:  timeout,
	}
}

// Get returns storage.ErrKeyNotFound when key does not exist.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	data, err := s.client.Get(ctx, string(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	return s.client.Set(ctx, string(key), value, 0).Err()
}

// Sync waits for replica acknowledgement when configured.
func (s *Store) Sync(ctx context.Context) error {
	if s.waitReplicas <= 0 {
		return nil
	}

	// WAIT is not part of UniversalClient, so it goes through Do.
	acked, err := s.client.Do(ctx, "wait", s.waitReplicas, s.waitTimeout.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("redis: wait: %w", err)
	}
	if acked < int64(s.waitReplicas) {
		return fmt.Errorf("redis: wait: %d of %d replicas acknowledged", acked, s.waitReplicas)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
