// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted-set member per admitted request, scored by
// its timestamp in milliseconds. Trimming, counting, and adding happen in one
// script so concurrent callers cannot both take the last slot.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[5])
local count = redis.call('ZCARD', key)
if count < limit then
  redis.call('ZADD', key, ARGV[1], ARGV[4])
  redis.call('PEXPIRE', key, ARGV[2])
  return {1, limit - count - 1, 0}
end

local retry = window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// RedisLimiter is a sliding-window log shared by every app instance.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	policy Policy
	now    func() time.Time
}

// NewRedisLimiter creates a limiter storing keys as <prefix>rl:<policy>:<key>.
func NewRedisLimiter(client *redis.Client, prefix string, policy Policy) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		policy: policy,
		now:    time.Now,
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now().UnixMilli()
	redisKey := l.prefix + "rl:" + l.policy.Name + ":" + key

	window := l.policy.Window.Milliseconds()

	vals, err := slidingWindow.Run(ctx, l.client, []string{redisKey},
		now, window, l.policy.Limit, fmt.Sprintf("%d-%s", now, uuid.NewString()), now-window,
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", l.policy.Name, err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("rate limit %s: unexpected script reply %v", l.policy.Name, vals)
	}

	return Result{
		Allowed:    vals[0] == 1,
		Limit:      l.policy.Limit,
		Remaining:  int(vals[1]),
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

var _ Limiter = (*RedisLimiter)(nil)
