package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/skypan-cloud/skypan-backend/internal/pkg/database"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/minio"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/redis"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database database.Config `mapstructure:"database"`
	Redis    redis.Config    `mapstructure:"redis"`
	MinIO    minio.Config    `mapstructure:"minio"`
	Log      logger.Config   `mapstructure:"log"`
	Upload   UploadConfig    `mapstructure:"upload"`
	Version  VersionConfig   `mapstructure:"version"`
	Outbox   OutboxConfig    `mapstructure:"outbox"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Quota    QuotaConfig     `mapstructure:"quota"`
	Trash    TrashConfig     `mapstructure:"trash"`
	Worker   WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// UploadConfig controls chunked uploads
type UploadConfig struct {
	ChunkSize  int64         `mapstructure:"chunk_size"`  // bytes per chunk
	SessionTTL time.Duration `mapstructure:"session_ttl"` // stale session expiry
	MaxSize    int64         `mapstructure:"max_size"`    // max file size, 0 = unlimited
}

// VersionConfig controls file version history
type VersionConfig struct {
	MaxVersions int `mapstructure:"max_versions"`
}

// OutboxConfig controls event delivery retries
type OutboxConfig struct {
	Stream        string        `mapstructure:"stream"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	BatchSize     int           `mapstructure:"batch_size"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

// CacheConfig controls the metadata cache tiers
type CacheConfig struct {
	L1MaxEntries int64         `mapstructure:"l1_max_entries"`
	L1MaxCost    int64         `mapstructure:"l1_max_cost"` // bytes
	L2TTL        time.Duration `mapstructure:"l2_ttl"`
	HotLimit     int64         `mapstructure:"hot_limit"`
}

// QuotaConfig points at the external quota service
type QuotaConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TrashConfig controls trash retention
type TrashConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// WorkerConfig controls the background worker pool
type WorkerConfig struct {
	Workers int `mapstructure:"workers"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Upload.ChunkSize == 0 {
		c.Upload.ChunkSize = 5 * 1024 * 1024
	}
	if c.Upload.SessionTTL == 0 {
		c.Upload.SessionTTL = 24 * time.Hour
	}
	if c.Version.MaxVersions == 0 {
		c.Version.MaxVersions = 10
	}
	if c.Outbox.Stream == "" {
		c.Outbox.Stream = "file:events"
	}
	if c.Outbox.SweepInterval == 0 {
		c.Outbox.SweepInterval = 30 * time.Second
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.MaxAttempts == 0 {
		c.Outbox.MaxAttempts = 5
	}
	if c.Cache.L1MaxEntries == 0 {
		c.Cache.L1MaxEntries = 10000
	}
	if c.Cache.L1MaxCost == 0 {
		c.Cache.L1MaxCost = 64 * 1024 * 1024
	}
	if c.Cache.L2TTL == 0 {
		c.Cache.L2TTL = 30 * time.Minute
	}
	if c.Cache.HotLimit == 0 {
		c.Cache.HotLimit = 1000
	}
	if c.Quota.Timeout == 0 {
		c.Quota.Timeout = 5 * time.Second
	}
	if c.Trash.RetentionDays == 0 {
		c.Trash.RetentionDays = 30
	}
	if c.Worker.Workers == 0 {
		c.Worker.Workers = 32
	}
}

// Validate checks the assembled configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.MinIO.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Upload.ChunkSize < 1024 {
		return fmt.Errorf("upload chunk_size too small: %d", c.Upload.ChunkSize)
	}
	if c.Quota.Enabled && c.Quota.BaseURL == "" {
		return fmt.Errorf("quota base_url is required when quota is enabled")
	}
	return nil
}
