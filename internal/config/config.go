// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 shared signing secret for all token kinds. Required in production.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTAccessTTL is the access token lifetime (e.g. "24h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10. Used for passwords and refresh-token hashes.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// BlacklistSweepInterval is how often the in-memory token blacklist purges expired entries (e.g. "5m").
	BlacklistSweepInterval string `mapstructure:"BLACKLIST_SWEEP_INTERVAL"`
	// CodeCleanupInterval is how often cmd/worker deletes expired device authorization codes (e.g. "15m").
	CodeCleanupInterval string `mapstructure:"CODE_CLEANUP_INTERVAL"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces and metrics; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// ServiceName is the service.name resource attribute for telemetry.
	ServiceName string `mapstructure:"SERVICE_NAME"`
	// Env is the application environment (e.g. "development", "production").
	// The default dev JWT secret is rejected when Env is production.
	Env string `mapstructure:"APP_ENV"`
}

// DevJWTSecret is the fallback signing secret for local development. Load rejects it in production.
const DevJWTSecret = "dev-secret-change-in-production"

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("JWT_ACCESS_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("BLACKLIST_SWEEP_INTERVAL", "5m")
	v.SetDefault("CODE_CLEANUP_INTERVAL", "15m")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("SERVICE_NAME", "timetrack-auth")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if cfg.Env == "production" && cfg.JWTSecret == DevJWTSecret {
		return nil, errors.New("config: JWT_SECRET must not be the dev default when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// SweepInterval parses BlacklistSweepInterval. Returns 5m if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.BlacklistSweepInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// CleanupInterval parses CodeCleanupInterval. Returns 15m if unset or invalid.
func (c *Config) CleanupInterval() time.Duration {
	d, err := time.ParseDuration(c.CodeCleanupInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
