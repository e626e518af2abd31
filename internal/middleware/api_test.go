// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func clientKey(r *http.Request) string {
	return r.Header.Get("X-Forwarded-For")
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(0.001, 2, clientKey)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/destinations", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := do("203.0.113.1"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rr.Code)
		}
	}

	rr := do("203.0.113.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("burst exceeded: status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	if rr := do("203.0.113.2"); rr.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", rr.Code)
	}
}

func TestGlobalRateLimiter_Prune(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1, clientKey)
	rl.cache.get("a")
	rl.cache.get("b")

	if rl.Prune(5) {
		t.Error("Prune below the threshold should keep entries")
	}
	if !rl.Prune(1) {
		t.Error("Prune above the threshold should clear")
	}
	if n := len(rl.cache.limiters); n != 0 {
		t.Errorf("limiters = %d after prune", n)
	}
}
