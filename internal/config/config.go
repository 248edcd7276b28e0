package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the SQL backend. "sqlite" is intended for local development.
	Driver          string        `mapstructure:"driver"            validate:"required,oneof=postgres sqlite"`
	URL             string        `mapstructure:"url"               validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"gt=0"`
	// RateLimitPerMinute bounds requests per client IP on the public auth endpoints.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"gt=0"`
}

// CacheConfig contains the read-through cache settings.
type CacheConfig struct {
	Driver        string        `mapstructure:"driver"         validate:"required,oneof=memory redis none"`
	TTL           time.Duration `mapstructure:"ttl"            validate:"gt=0"`
	Prefix        string        `mapstructure:"prefix"`
	FlushUntagged bool          `mapstructure:"flush_untagged"`
	RedisAddr     string        `mapstructure:"redis_addr"     validate:"required_if=Driver redis"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"       validate:"gte=0"`
}

// JobsConfig contains settings for the background job runner.
type JobsConfig struct {
	WorkerCount     int           `mapstructure:"worker_count"      validate:"gte=1"`
	QueueSize       int           `mapstructure:"queue_size"        validate:"gte=1"`
	StuckJobAge     time.Duration `mapstructure:"stuck_job_age"     validate:"gt=0"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"    validate:"gt=0"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"     validate:"gt=0"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff" validate:"gtefield=RetryBackoff"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"   validate:"gt=0"`
}
