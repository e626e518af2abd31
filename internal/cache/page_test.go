// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type hero struct {
	Title string `json:"title"`
}

func TestFetch_LoadsOnceThenHits(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (*hero, error) {
		calls++
		return &hero{Title: "Hello"}, nil
	}

	for range 3 {
		got, err := Fetch(ctx, c, PageKey("home", "home_hero"), 0, load)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if got == nil || got.Title != "Hello" {
			t.Fatalf("unexpected value: %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
}

func TestFetch_CachesNil(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (*hero, error) {
		calls++
		return nil, nil
	}
	for range 2 {
		got, err := Fetch(ctx, c, "page:home:missing", 0, load)
		if err != nil || got != nil {
			t.Fatalf("Fetch = %v, %v; want nil, nil", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
}

func TestFetch_LoadErrorNotCached(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	boom := errors.New("db down")
	_, err := Fetch(ctx, c, "k", 0, func(context.Context) (*hero, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Fetch error = %v, want %v", err, boom)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Error("failed loads must not be cached")
	}
}

func TestInvalidatePages(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, PageKey("home", "about_stats"), []byte("1"), 0)
	_ = c.Set(ctx, PageKey("about", "about_stats"), []byte("1"), 0)
	_ = c.Set(ctx, PageKey("contact", "faq"), []byte("1"), 0)

	InvalidatePages(ctx, c, slog.New(slog.NewTextHandler(io.Discard, nil)), "home", "about")

	for _, key := range []string{PageKey("home", "about_stats"), PageKey("about", "about_stats")} {
		if _, err := c.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("%s should be invalidated", key)
		}
	}
	if _, err := c.Get(ctx, PageKey("contact", "faq")); err != nil {
		t.Errorf("contact entry should remain: %v", err)
	}
}
