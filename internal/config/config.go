// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Rate limit backends.
const (
	RateLimitRedis  = "redis"
	RateLimitMemory = "memory"
)

// Mail providers.
const (
	MailSES = "ses"
	MailLog = "log"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"VOYAGE_DB_PATH" envDefault:"./data/voyage.db"`
	SessionSecret string `env:"VOYAGE_SESSION_SECRET,required"`
	ServerHost    string `env:"VOYAGE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"VOYAGE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"VOYAGE_ENV" envDefault:"development"`
	LogLevel      string `env:"VOYAGE_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL    string `env:"VOYAGE_REDIS_URL"`                         // Shared by cache and rate limiter
	CachePrefix string `env:"VOYAGE_CACHE_PREFIX" envDefault:"voyage:"` // Redis key prefix
	CacheTTL    int    `env:"VOYAGE_CACHE_TTL" envDefault:"300"`        // Public content TTL in seconds

	// RateLimitBackend must be set explicitly in production.
	RateLimitBackend string `env:"VOYAGE_RATE_LIMIT_BACKEND"`

	// CORS origins of the static site allowed to call /api
	CORSOrigins []string `env:"VOYAGE_CORS_ORIGINS" envSeparator:","`

	// Mail configuration
	MailProvider string `env:"VOYAGE_MAIL_PROVIDER" envDefault:"log"`
	MailFrom     string `env:"VOYAGE_MAIL_FROM" envDefault:"no-reply@localhost"`
	AdminEmail   string `env:"VOYAGE_ADMIN_EMAIL" envDefault:"admin@localhost"`
	AWSRegion    string `env:"VOYAGE_AWS_REGION" envDefault:"us-east-1"`

	// Static AWS credentials; the SDK default chain is used when empty
	AWSAccessKeyID     string `env:"VOYAGE_AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"VOYAGE_AWS_SECRET_ACCESS_KEY"`

	// Object storage for uploaded images
	StorageBackend string `env:"VOYAGE_STORAGE_BACKEND" envDefault:"local"`
	UploadsDir     string `env:"VOYAGE_UPLOADS_DIR" envDefault:"./uploads"`
	S3Bucket       string `env:"VOYAGE_S3_BUCKET"`
	S3PublicURL    string `env:"VOYAGE_S3_PUBLIC_URL"`
	S3Endpoint     string `env:"VOYAGE_S3_ENDPOINT"` // S3-compatible endpoint, e.g. MinIO

	// Static site rebuild hook
	RebuildHookURL    string `env:"VOYAGE_REBUILD_HOOK_URL"`
	RebuildHookSecret string `env:"VOYAGE_REBUILD_HOOK_SECRET"`

	// GeoIP configuration
	GeoIPDBPath string `env:"VOYAGE_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Seeding configuration
	DoSeed bool `env:"VOYAGE_DO_SEED" envDefault:"false"`

	// NotificationWorkers is the number of outbox delivery workers.
	NotificationWorkers int `env:"VOYAGE_NOTIFICATION_WORKERS" envDefault:"3"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// RebuildHookEnabled returns true if a static site rebuild hook is configured.
func (c Config) RebuildHookEnabled() bool {
	return c.RebuildHookURL != ""
}

// CacheTTLDuration returns the public content cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validateSecret(); err != nil {
		return nil, err
	}
	if err := cfg.resolveRateLimitBackend(); err != nil {
		return nil, err
	}
	if err := cfg.validateProviders(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateSecret() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("VOYAGE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("VOYAGE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("VOYAGE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return nil
}

// resolveRateLimitBackend picks the limiter backend. Production refuses to
// start without an explicit choice so limits are never silently disabled.
func (c *Config) resolveRateLimitBackend() error {
	backend := strings.ToLower(strings.TrimSpace(c.RateLimitBackend))

	switch backend {
	case RateLimitRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("VOYAGE_RATE_LIMIT_BACKEND=redis requires VOYAGE_REDIS_URL")
		}
	case RateLimitMemory:
	case "":
		switch {
		case c.RedisURL != "":
			backend = RateLimitRedis
		case c.IsDevelopment():
			backend = RateLimitMemory
		default:
			return fmt.Errorf("rate limiting is not configured: set VOYAGE_REDIS_URL " +
				"or VOYAGE_RATE_LIMIT_BACKEND=memory for a single-instance deployment")
		}
	default:
		return fmt.Errorf("unknown VOYAGE_RATE_LIMIT_BACKEND %q (want redis or memory)", c.RateLimitBackend)
	}

	c.RateLimitBackend = backend
	return nil
}

func (c *Config) validateProviders() error {
	switch c.MailProvider {
	case MailLog:
	case MailSES:
		if c.MailFrom == "" || c.AWSRegion == "" {
			return fmt.Errorf("VOYAGE_MAIL_PROVIDER=ses requires VOYAGE_MAIL_FROM and VOYAGE_AWS_REGION")
		}
	default:
		return fmt.Errorf("unknown VOYAGE_MAIL_PROVIDER %q (want ses or log)", c.MailProvider)
	}

	switch c.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("VOYAGE_STORAGE_BACKEND=s3 requires VOYAGE_S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown VOYAGE_STORAGE_BACKEND %q (want local or s3)", c.StorageBackend)
	}

	if c.NotificationWorkers <= 0 {
		c.NotificationWorkers = 3
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
