package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver selects the SQL dialect: "postgres" or "sqlite".
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`

	// URL is a postgres connection string or a sqlite data source name.
	URL string `mapstructure:"url" validate:"required"`

	MaxOpenConns   int  `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns   int  `mapstructure:"max_idle_conns" validate:"gte=0"`
	MigrateOnStart bool `mapstructure:"migrate_on_start"`
}

// AuthConfig contains token validation settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// CacheConfig contains task-list cache settings.
type CacheConfig struct {
	Backend    string `mapstructure:"backend" validate:"required,oneof=memory sturdyc"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`

	// Capacity and Shards size the sturdyc backend.
	Capacity int `mapstructure:"capacity" validate:"gt=0"`
	Shards   int `mapstructure:"shards" validate:"gt=0"`
}

// TTL returns the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RateLimitConfig bounds how many requests a single client may make per
// window.
type RateLimitConfig struct {
	Requests      int `mapstructure:"requests" validate:"required,gt=0"`
	WindowMinutes int `mapstructure:"window_minutes" validate:"required,gt=0"`
}

// Window returns the rate limit window.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}
