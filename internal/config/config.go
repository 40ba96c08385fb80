package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig points at the remote store of record.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// CacheConfig controls the local durable cache and its staleness windows.
// An empty Path selects the per-user cache directory.
type CacheConfig struct {
	Path          string        `mapstructure:"path"`
	StatsMaxAge   time.Duration `mapstructure:"stats_max_age" validate:"gt=0"`
	ContentMaxAge time.Duration `mapstructure:"content_max_age" validate:"gt=0"`
	Retention     time.Duration `mapstructure:"retention" validate:"gt=0"`
	PurgeInterval time.Duration `mapstructure:"purge_interval" validate:"gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
}

// ReviewConfig shapes review sessions.
type ReviewConfig struct {
	NewItemLimit       int           `mapstructure:"new_item_limit" validate:"gte=0,lte=500"`
	MaxRelearnAttempts int           `mapstructure:"max_relearn_attempts" validate:"gte=0,lte=20"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" validate:"gt=0"`
}

// SyncConfig sizes the background dispatcher that carries remote writes.
type SyncConfig struct {
	Workers   int `mapstructure:"workers" validate:"required,gt=0"`
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}
