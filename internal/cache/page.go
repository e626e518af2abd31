// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// PageKey returns the cache key for one public read belonging to a page,
// e.g. page:about:team_member.
func PageKey(page, name string) string {
	return "page:" + page + ":" + name
}

// PagePrefix returns the prefix covering every key of a page.
func PagePrefix(page string) string {
	return "page:" + page + ":"
}

// InvalidatePages drops every cached read of the given pages. Failures are
// logged and the remaining pages are still attempted.
func InvalidatePages(ctx context.Context, c Cache, logger *slog.Logger, pages ...string) {
	for _, page := range pages {
		if err := c.DeleteByPrefix(ctx, PagePrefix(page)); err != nil {
			logger.Warn("cache invalidation failed", "page", page, "error", err)
		}
	}
}

// Fetch returns the JSON-decoded value cached under key, or calls load and
// caches its result. Cache errors degrade to calling load.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if data, err := c.Get(ctx, key); err == nil {
		var v T
		if json.Unmarshal(data, &v) == nil {
			return v, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Debug("cache read failed", "key", key, "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := c.Set(ctx, key, data, ttl); err != nil {
			slog.Debug("cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}
