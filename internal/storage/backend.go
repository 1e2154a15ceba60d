package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/storage/codec"
)

// DefaultVaultKey is the key the encoded vault is stored under.
const DefaultVaultKey = "vault"

// Backend persists the vault.
//
// Load runs once at startup. Upsert is called with the staged vault (the
// current vault plus e) before the caller commits it in memory; a nil
// return means the assignment is durable.
type Backend interface {
	// Name identifies the backend in logs and status output.
	Name() string

	// Load reads the persisted vault. Missing or unreadable state yields
	// an empty vault; only an unreachable store is an error.
	Load(ctx context.Context) (*domain.Vault, error)

	// Upsert durably records e. next already contains e.
	Upsert(ctx context.Context, next *domain.Vault, e domain.Entry) error

	// Close releases the underlying store.
	Close() error
}

// Backupper is implemented by backends that can stream a physical backup.
type Backupper interface {
	Backup(ctx context.Context, w io.Writer) error
}

// BlobStore is a key-value store able to hold the encoded vault.
type BlobStore interface {
	// Get returns ErrKeyNotFound when key is absent.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value []byte) error

	// Sync makes every completed Set durable.
	Sync(ctx context.Context) error

	// Close releases the store.
	Close() error
}

// BlobBackend stores the whole vault as one encoded record in a BlobStore.
type BlobBackend struct {
	name   string
	store  BlobStore
	codec  *codec.Codec
	key    []byte
	logger *slog.Logger
}

// BlobOption configures a BlobBackend.
type BlobOption func(*BlobBackend)

// WithVaultKey overrides DefaultVaultKey.
func WithVaultKey(key string) BlobOption {
	return func(b *BlobBackend) {
		if key != "" {
			b.key = []byte(key)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BlobOption {
	return func(b *BlobBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBlobBackend creates a backend named name over store.
// A nil codec stores unsealed blobs.
func NewBlobBackend(name string, store BlobStore, c *codec.Codec, opts ...BlobOption) *BlobBackend {
	if c == nil {
		c = codec.New()
	}
	b := &BlobBackend{
		name:   name,
		store:  store,
		codec:  c,
		key:    []byte(DefaultVaultKey),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend name.
func (b *BlobBackend) Name() string {
	return b.name
}

// Load reads and decodes the vault blob.
func (b *BlobBackend) Load(ctx context.Context) (*domain.Vault, error) {
	data, err := b.store.Get(ctx, b.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			b.logger.Info("no persisted vault, starting empty", "backend", b.name)
			return domain.NewVault(), nil
		}
		return nil, domain.ErrStorageOpen.WithDetails("read vault").WithCause(err)
	}

	v, err := b.codec.Decode(data)
	if err != nil {
		b.logger.Warn("persisted vault is unreadable, starting empty",
			"backend", b.name,
			"bytes", len(data),
			"error", err)
		return domain.NewVault(), nil
	}

	b.logger.Info("vault loaded", "backend", b.name, "entries", v.Len())
	return v, nil
}

// Upsert encodes next, writes it and syncs the store.
func (b *BlobBackend) Upsert(ctx context.Context, next *domain.Vault, _ domain.Entry) error {
	data, err := b.codec.Encode(next)
	if err != nil {
		return err
	}
	if err := b.store.Set(ctx, b.key, data); err != nil {
		return fmt.Errorf("%s: write vault: %w", b.name, err)
	}
	if err := b.store.Sync(ctx); err != nil {
		return fmt.Errorf("%s: sync vault: %w", b.name, err)
	}
	return nil
}

// Replace writes v as the whole vault.
func (b *BlobBackend) Replace(ctx context.Context, v *domain.Vault) error {
	return b.Upsert(ctx, v, domain.Entry{})
}

// Backup streams a physical backup when the store supports it.
func (b *BlobBackend) Backup(ctx context.Context, w io.Writer) error {
	bs, ok := b.store.(Backupper)
	if !ok {
		return domain.ErrNotImplemented.WithDetails("backup is not supported by the " + b.name + " backend")
	}
	return bs.Backup(ctx, w)
}

// Close closes the store.
func (b *BlobBackend) Close() error {
	return b.store.Close()
}
