package storage

import (
	"context"
	"io"
)

// KVEngine defines the interface for embedded key-value storage.
//
// Implementation requirements:
// - Thread-safe: concurrent reads/writes must be safe
// - Durable: data written before a successful Sync survives restarts
type KVEngine interface {
	BlobStore

	// Backup writes a full backup of the store to w.
	Backup(ctx context.Context, w io.Writer) error

	// GC triggers garbage collection (for LSM-based engines like Badger).
	// Returns bytes reclaimed.
	GC(ctx context.Context) (uint64, error)

	// Stats returns storage statistics (size, last GC, etc.).
	Stats(ctx context.Context) (*KVStats, error)
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is the total disk usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size.
	LSMSize uint64

	// ValueLogSize is the value log size.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCBytesReclaimed is the total bytes reclaimed by GC.
	GCBytesReclaimed uint64
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Dir is the storage directory.
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites fsyncs after each write transaction.
	// Default: true (every vault assignment must be durable when acknowledged)
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        16 << 20, // 16MB
		ValueLogFileSize: 64 << 20, // 64MB
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
