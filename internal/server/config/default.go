package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRateLimitRPS    = 200
	DefaultRateLimitBurst  = 400

	DefaultRESPAddr        = "127.0.0.1:6380"
	DefaultRESPCommandRate = 500
	DefaultRESPIdleTimeout = 5 * time.Minute
	DefaultRESPMaxConns    = 1024

	DefaultBackend    = BackendBadger
	DefaultDataDir    = "/var/lib/tokvault/data"
	DefaultGCInterval = 10 * time.Minute
	DefaultRedisAddr  = "127.0.0.1:6379"
	DefaultRedisKey   = "tokvault:vault"
	DefaultSQLTable   = "token_vault"
	DefaultSQLConns   = 4

	DefaultSnapshotRetentionCount = 5
	DefaultSnapshotRetentionDays  = 7

	DefaultCipher           = "auto"
	DefaultDetokenizePolicy = "drop"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				MaxBodyBytes: DefaultMaxBodyBytes,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				RateLimit: RateLimitConfig{
					RPS:   DefaultRateLimitRPS,
					Burst: DefaultRateLimitBurst,
				},
			},
			RESP: RESPConfig{
				Addr:              DefaultRESPAddr,
				CommandsPerSecond: DefaultRESPCommandRate,
				IdleTimeout:       DefaultRESPIdleTimeout,
				MaxConns:          DefaultRESPMaxConns,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Backend:    DefaultBackend,
			DataDir:    DefaultDataDir,
			SyncWrites: true,
			GCInterval: DefaultGCInterval,
			Redis: RedisStorage{
				Addr: DefaultRedisAddr,
				Key:  DefaultRedisKey,
			},
			SQL: SQLStorage{
				Table:        DefaultSQLTable,
				MaxOpenConns: DefaultSQLConns,
			},
			Snapshot: SnapshotStorage{
				RetentionCount: DefaultSnapshotRetentionCount,
				RetentionDays:  DefaultSnapshotRetentionDays,
			},
		},
		Security: SecuritySection{
			Cipher: DefaultCipher,
		},
		Vault: VaultSection{
			DetokenizePolicy: DefaultDetokenizePolicy,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
