// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an enforcing sliding-window log kept in process memory.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	policy Policy
	now    func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter for policy.
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   make(map[string][]time.Time),
		policy: policy,
		now:    time.Now,
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window := l.trim(key, now)

	if len(window) >= l.policy.Limit {
		return Result{
			Allowed:    false,
			Limit:      l.policy.Limit,
			Remaining:  0,
			RetryAfter: window[0].Add(l.policy.Window).Sub(now),
		}, nil
	}

	l.hits[key] = append(window, now)
	return Result{
		Allowed:   true,
		Limit:     l.policy.Limit,
		Remaining: l.policy.Limit - len(window) - 1,
	}, nil
}

// trim drops timestamps that fell out of the window. Callers hold mu.
func (l *MemoryLimiter) trim(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.policy.Window)
	times := l.hits[key]

	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	if i == len(times) {
		delete(l.hits, key)
		return nil
	}
	times = times[i:]
	l.hits[key] = times
	return times
}

// Sweep removes keys with no requests left in the window and reports how many.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key := range l.hits {
		if l.trim(key, now) == nil {
			removed++
		}
	}
	return removed
}

var _ Limiter = (*MemoryLimiter)(nil)
