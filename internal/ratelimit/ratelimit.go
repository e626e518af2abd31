// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ratelimit implements sliding-window request limits for the public
// submission forms, backed by Redis in production or process memory for a
// single instance.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Result describes one limiter decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Policy is a named limit of Limit requests per Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Form policies.
var (
	ContactPolicy       = Policy{Name: "contact", Limit: 10, Window: time.Hour}
	NewsletterPolicy    = Policy{Name: "newsletter", Limit: 3, Window: time.Hour}
	BookingPolicy       = Policy{Name: "booking", Limit: 5, Window: time.Hour}
	CustomPackagePolicy = Policy{Name: "custom-package", Limit: 5, Window: 24 * time.Hour}
	LoginPolicy         = Policy{Name: "login", Limit: 10, Window: 15 * time.Minute}
)

// Set holds one limiter per form.
type Set struct {
	Contact       Limiter
	Newsletter    Limiter
	Booking       Limiter
	CustomPackage Limiter
	Login         Limiter

	memory []*MemoryLimiter
}

// NewSet builds the limiters for the configured backend. The redis backend
// requires a client; prefix is the shared cache prefix, and the limiters add
// their own "rl:" segment under it.
func NewSet(backend string, client *redis.Client, prefix string, logger *slog.Logger) (*Set, error) {
	s := &Set{}

	var build func(Policy) Limiter
	switch backend {
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis rate limit backend requires a redis client")
		}
		build = func(p Policy) Limiter { return NewRedisLimiter(client, prefix, p) }
	case BackendMemory:
		logger.Warn("rate limits are enforced per process; run a single instance or configure VOYAGE_REDIS_URL",
			"category", "security", "backend", backend)
		build = func(p Policy) Limiter {
			m := NewMemoryLimiter(p)
			s.memory = append(s.memory, m)
			return m
		}
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", backend)
	}

	s.Contact = build(ContactPolicy)
	s.Newsletter = build(NewsletterPolicy)
	s.Booking = build(BookingPolicy)
	s.CustomPackage = build(CustomPackagePolicy)
	s.Login = build(LoginPolicy)
	return s, nil
}

// Sweep drops idle keys from in-memory limiters. It is a no-op for Redis,
// where keys expire on their own.
func (s *Set) Sweep() int {
	n := 0
	for _, m := range s.memory {
		n += m.Sweep()
	}
	return n
}
