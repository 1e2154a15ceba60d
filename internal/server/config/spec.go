package config

import "time"

// Storage backend names.
const (
	BackendBadger   = "badger"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// ServerConfig is the root configuration for tokvault-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" json:"server" yaml:"server"`
	Storage  StorageSection  `koanf:"storage" json:"storage" yaml:"storage"`
	Security SecuritySection `koanf:"security" json:"security" yaml:"security"`
	Vault    VaultSection    `koanf:"vault" json:"vault" yaml:"vault"`
	Log      LogSection      `koanf:"log" json:"log" yaml:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http" json:"http" yaml:"http"`
	RESP            RESPConfig    `koanf:"resp" json:"resp" yaml:"resp"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr" json:"addr" yaml:"addr"`
	TLSCertFile string `koanf:"tls_cert_file" json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" json:"tls_key_file" yaml:"tls_key_file"`

	// ClientCAFile, when set with TLS, requires client certificates signed
	// by one of its CAs.
	ClientCAFile string `koanf:"client_ca_file" json:"client_ca_file" yaml:"client_ca_file"`

	// APIKey, when set, is required as a bearer token on vault routes and
	// as the AUTH password on the RESP listener.
	APIKey string `koanf:"api_key" json:"api_key" yaml:"api_key"`

	RateLimit RateLimitConfig `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit"`

	// TrustProxyHeaders keys rate limiting and access logs by
	// X-Forwarded-For. Enable only behind a trusted proxy.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers" json:"trust_proxy_headers" yaml:"trust_proxy_headers"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes" json:"max_body_bytes" yaml:"max_body_bytes"`

	ReadTimeout  time.Duration `koanf:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
}

// RESPConfig configures the optional Redis-protocol listener.
type RESPConfig struct {
	Enabled      bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Addr         string `koanf:"addr" json:"addr" yaml:"addr"`
	TLSCertFile  string `koanf:"tls_cert_file" json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile   string `koanf:"tls_key_file" json:"tls_key_file" yaml:"tls_key_file"`
	ClientCAFile string `koanf:"client_ca_file" json:"client_ca_file" yaml:"client_ca_file"`

	// CommandsPerSecond limits each connection. Zero disables limiting.
	CommandsPerSecond float64 `koanf:"commands_per_second" json:"commands_per_second" yaml:"commands_per_second"`

	IdleTimeout time.Duration `koanf:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout"`
	MaxConns    int           `koanf:"max_conns" json:"max_conns" yaml:"max_conns"`
}

// RateLimitConfig configures per-client-IP rate limiting. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" json:"rps" yaml:"rps"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst"`
}

// StorageSection selects and configures the vault backend.
type StorageSection struct {
	Backend string `koanf:"backend" json:"backend" yaml:"backend"`

	// Badger
	DataDir    string        `koanf:"data_dir" json:"data_dir" yaml:"data_dir"`
	SyncWrites bool          `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`

	Redis    RedisStorage    `koanf:"redis" json:"redis" yaml:"redis"`
	SQL      SQLStorage      `koanf:"sql" json:"sql" yaml:"sql"`
	Snapshot SnapshotStorage `koanf:"snapshot" json:"snapshot" yaml:"snapshot"`
}

// SnapshotStorage configures periodic vault snapshots. They are taken
// when Dir is set and Interval is positive, and once more on shutdown.
type SnapshotStorage struct {
	Dir            string        `koanf:"dir" json:"dir" yaml:"dir"`
	Interval       time.Duration `koanf:"interval" json:"interval" yaml:"interval"`
	RetentionCount int           `koanf:"retention_count" json:"retention_count" yaml:"retention_count"`
	RetentionDays  int           `koanf:"retention_days" json:"retention_days" yaml:"retention_days"`
}

// Enabled reports whether periodic snapshots are configured.
func (s SnapshotStorage) Enabled() bool {
	return s.Dir != "" && s.Interval > 0
}

// RedisStorage configures the redis backend.
type RedisStorage struct {
	Addr         string `koanf:"addr" json:"addr" yaml:"addr"`
	Password     string `koanf:"password" json:"password" yaml:"password"`
	DB           int    `koanf:"db" json:"db" yaml:"db"`
	Key          string `koanf:"key" json:"key" yaml:"key"`
	WaitReplicas int    `koanf:"wait_replicas" json:"wait_replicas" yaml:"wait_replicas"`

	TLS RedisTLS `koanf:"tls" json:"tls" yaml:"tls"`
}

// RedisTLS configures TLS to the redis server.
type RedisTLS struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`

	// CAFile adds CAs to the system roots.
	CAFile     string `koanf:"ca_file" json:"ca_file" yaml:"ca_file"`
	ServerName string `koanf:"server_name" json:"server_name" yaml:"server_name"`
}

// SQLStorage configures the postgres and mysql backends.
type SQLStorage struct {
	DSN          string `koanf:"dsn" json:"dsn" yaml:"dsn"`
	Table        string `koanf:"table" json:"table" yaml:"table"`
	MaxOpenConns int    `koanf:"max_open_conns" json:"max_open_conns" yaml:"max_open_conns"`
}

// SecuritySection configures at-rest encryption of blob backends.
type SecuritySection struct {
	// EncryptionKey is hex; 16, 24 or 32 bytes for AES-GCM, 32 for ChaCha20.
	EncryptionKey string `koanf:"encryption_key" json:"encryption_key" yaml:"encryption_key"`
	Cipher        string `koanf:"cipher" json:"cipher" yaml:"cipher"`
}

// VaultSection configures tokenization behaviour.
type VaultSection struct {
	DetokenizePolicy string `koanf:"detokenize_policy" json:"detokenize_policy" yaml:"detokenize_policy"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
