package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Escrow    EscrowConfig    `mapstructure:"escrow"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Chain     ChainConfig     `mapstructure:"chain"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Events    EventsConfig    `mapstructure:"events"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	ReadOnly bool   `mapstructure:"read_only"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

type AuthConfig struct {
	AdminKey string `mapstructure:"admin_key"`
}

type LedgerConfig struct {
	Automine    bool   `mapstructure:"automine"`
	StartHeight uint64 `mapstructure:"start_height"`
	// Deployer seeds contract address derivation; empty uses a fixed account.
	Deployer string `mapstructure:"deployer"`
}

type EscrowConfig struct {
	MinExpiryBuffer    uint64 `mapstructure:"min_expiry_buffer"`
	SignatureCacheSize int    `mapstructure:"signature_cache_size"`
	EnableV1           bool   `mapstructure:"enable_v1"`
	EnableV2           bool   `mapstructure:"enable_v2"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver"` // memory, redis, postgres, pebble
	PebblePath string `mapstructure:"pebble_path"`
}

type DatabaseConfig struct {
	DSN                    string `mapstructure:"dsn"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	EventRetentionDays     int    `mapstructure:"event_retention_days"`
	CleanupIntervalMinutes int    `mapstructure:"cleanup_interval_minutes"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	KeyPrefix             string `mapstructure:"key_prefix"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
	EventListKey          string `mapstructure:"event_list_key"`
	EventListMax          int    `mapstructure:"event_list_max"`
}

type ChainConfig struct {
	RPCURL        string `mapstructure:"rpc_url"`
	EscrowAddress string `mapstructure:"escrow_address"`
	TimeoutMs     int    `mapstructure:"timeout_ms"`
	Retries       int    `mapstructure:"retries"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type EventsConfig struct {
	LogDir     string `mapstructure:"log_dir"`
	BufferSize int    `mapstructure:"buffer_size"`
}

func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration through v, so tests can supply their own
// instance.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// Environment variables support
	// e.g. SWAPGATE_ESCROW_MIN_EXPIRY_BUFFER
	v.SetEnvPrefix("swapgate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_only", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("auth.admin_key", "")
	v.SetDefault("ledger.automine", true)
	v.SetDefault("ledger.start_height", 0)
	v.SetDefault("ledger.deployer", "")
	v.SetDefault("escrow.min_expiry_buffer", 2)
	v.SetDefault("escrow.signature_cache_size", 4096)
	v.SetDefault("escrow.enable_v1", true)
	v.SetDefault("escrow.enable_v2", true)
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.pebble_path", "./data/offers")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.event_retention_days", 30)
	v.SetDefault("database.cleanup_interval_minutes", 60)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "swapgate")
	v.SetDefault("redis.idempotency_ttl_seconds", 86400)
	v.SetDefault("redis.event_list_key", "swapgate:events")
	v.SetDefault("redis.event_list_max", 10000)
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.escrow_address", "")
	v.SetDefault("chain.timeout_ms", 5000)
	v.SetDefault("chain.retries", 1)
	v.SetDefault("rate_limit.qps", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("events.log_dir", "./logs")
	v.SetDefault("events.buffer_size", 1000)
}
