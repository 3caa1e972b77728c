package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Queue      QueueConfig      `yaml:"queue"`
	ML         MLConfig         `yaml:"ml"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// QueueConfig holds tunables for the wait-time estimator.
type QueueConfig struct {
	// DefaultAvgServiceMinutes is assumed while no completed entries exist yet.
	DefaultAvgServiceMinutes float64 `yaml:"default_avg_service_minutes"`
}

// MLConfig holds the endpoint of the external prediction service and the
// values returned to clients when that service is unreachable.
type MLConfig struct {
	URL                    string        `yaml:"url"`
	TimeoutSeconds         int           `yaml:"timeout_seconds"`
	Timeout                time.Duration `yaml:"-"` // Ignored by YAML parser
	FallbackWaitingMinutes int           `yaml:"fallback_waiting_minutes"`
	FallbackQueueLength    int           `yaml:"fallback_queue_length"`
	FallbackNoShow         float64       `yaml:"fallback_no_show"`
	FallbackQueueDensity   int           `yaml:"fallback_queue_density"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
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

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Queue.DefaultAvgServiceMinutes <= 0 {
		cfg.Queue.DefaultAvgServiceMinutes = 5
	}

	if cfg.ML.URL == "" {
		cfg.ML.URL = "http://localhost:5001"
	}
	if cfg.ML.TimeoutSeconds <= 0 {
		cfg.ML.TimeoutSeconds = 5
	}
	cfg.ML.Timeout = time.Duration(cfg.ML.TimeoutSeconds) * time.Second
	if cfg.ML.FallbackWaitingMinutes <= 0 {
		cfg.ML.FallbackWaitingMinutes = 15
	}
	if cfg.ML.FallbackQueueLength <= 0 {
		cfg.ML.FallbackQueueLength = 10
	}
	if cfg.ML.FallbackNoShow <= 0 {
		cfg.ML.FallbackNoShow = 0.15
	}
	if cfg.ML.FallbackQueueDensity <= 0 {
		cfg.ML.FallbackQueueDensity = 20
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
