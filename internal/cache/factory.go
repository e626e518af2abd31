// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisClient selects the Redis backend when non-nil.
	RedisClient *redis.Client
	Prefix      string
	DefaultTTL  time.Duration
}

// New creates a Redis cache when a client is configured, otherwise a memory cache.
func New(cfg Config, logger *slog.Logger) Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.RedisClient != nil {
		logger.Info("using redis cache", "prefix", cfg.Prefix, "ttl", cfg.DefaultTTL)
		return NewRedisCache(cfg.RedisClient, cfg.Prefix, cfg.DefaultTTL)
	}
	logger.Info("using in-memory cache", "ttl", cfg.DefaultTTL)
	return NewMemoryCache(cfg.DefaultTTL, time.Minute)
}
