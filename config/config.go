package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Poller     PollerConfig     `yaml:"poller"`
	Store      StoreConfig      `yaml:"store"`
	Relay      RelayConfig      `yaml:"relay"`
	Database   DatabaseConfig   `yaml:"database"`
	History    HistoryConfig    `yaml:"history"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the slot event worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// PushConfig holds the VAPID keys for web push notifications.
// Push is optional: with no keys configured, expiry notifications are not sent.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// PollerConfig holds the configuration of the sensor polling engine.
type PollerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Address         string        `yaml:"address"`
	IntervalMillis  int           `yaml:"interval_ms"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	TimeoutSeconds  int           `yaml:"timeout_seconds"`
	Timeout         time.Duration `yaml:"-"`
	HTTPProxy       string        `yaml:"http_proxy"`
	DebounceMillis  int           `yaml:"debounce_ms"`
	Debounce        time.Duration `yaml:"-"`
	DangerZone      bool          `yaml:"danger_zone"`
	IngestIntoStore bool          `yaml:"ingest_into_store"`
}

// StoreConfig holds the reservation store configuration.
type StoreConfig struct {
	SlotCount int `yaml:"slot_count"`
}

// RelayConfig holds the broadcast relay configuration.
type RelayConfig struct {
	BroadcastStoreEvents bool          `yaml:"broadcast_store_events"`
	WriteTimeoutSeconds  int           `yaml:"write_timeout_seconds"`
	WriteTimeout         time.Duration `yaml:"-"`
}

// HistoryConfig holds the event archive configuration.
type HistoryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RetentionHours int           `yaml:"retention_hours"`
	Retention      time.Duration `yaml:"-"`
	PruneSchedule  string        `yaml:"prune_schedule"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// Load reads the configuration from the given path.
// Values from a .env file in the working directory, if any, are applied on top.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills unset values and derives the duration fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Poller.IntervalMillis <= 0 {
		cfg.Poller.IntervalMillis = 2000
	}
	cfg.Poller.Interval = time.Duration(cfg.Poller.IntervalMillis) * time.Millisecond
	if cfg.Poller.TimeoutSeconds <= 0 {
		cfg.Poller.TimeoutSeconds = 10
	}
	cfg.Poller.Timeout = time.Duration(cfg.Poller.TimeoutSeconds) * time.Second
	if cfg.Poller.DebounceMillis <= 0 {
		cfg.Poller.DebounceMillis = 1000
	}
	cfg.Poller.Debounce = time.Duration(cfg.Poller.DebounceMillis) * time.Millisecond

	if cfg.Store.SlotCount <= 0 {
		cfg.Store.SlotCount = 6
	}

	if cfg.Relay.WriteTimeoutSeconds <= 0 {
		cfg.Relay.WriteTimeoutSeconds = 5
	}
	cfg.Relay.WriteTimeout = time.Duration(cfg.Relay.WriteTimeoutSeconds) * time.Second

	if cfg.History.RetentionHours <= 0 {
		cfg.History.RetentionHours = 24
	}
	cfg.History.Retention = time.Duration(cfg.History.RetentionHours) * time.Hour
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = "@every 1h"
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file::memory:?cache=shared"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("PARKING_SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Warning: ignoring invalid PARKING_SERVER_PORT %q: %v", v, err)
		} else {
			cfg.Server.Port = port
		}
	}
	if v, ok := os.LookupEnv("PARKING_SENSOR_ADDRESS"); ok && v != "" {
		cfg.Poller.Address = v
		cfg.Poller.Enabled = true
	}
	if v, ok := os.LookupEnv("PARKING_DATABASE_DSN"); ok && v != "" {
		cfg.Database.DSN = v
	}
}
