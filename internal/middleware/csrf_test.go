// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testAuthKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	cfg := DefaultCSRFConfig(testAuthKey, []string{"https://www.example.com", "http://localhost:4321", "not a url"}, false)

	want := []string{"www.example.com", "localhost:4321"}
	if len(cfg.TrustedOrigins) != len(want) {
		t.Fatalf("TrustedOrigins = %v, want %v", cfg.TrustedOrigins, want)
	}
	for i, origin := range want {
		if cfg.TrustedOrigins[i] != origin {
			t.Errorf("TrustedOrigins[%d] = %q, want %q", i, cfg.TrustedOrigins[i], origin)
		}
	}

	dev := DefaultCSRFConfig(testAuthKey, nil, true)
	if len(dev.TrustedOrigins) == 0 {
		t.Error("development should trust localhost")
	}
	for _, origin := range dev.TrustedOrigins {
		if strings.HasPrefix(origin, "http") {
			t.Errorf("TrustedOrigin %q should be host:port, not a URL", origin)
		}
	}

	if prod := DefaultCSRFConfig(testAuthKey, nil, false); len(prod.TrustedOrigins) != 0 {
		t.Errorf("production without CORS origins should trust nothing, got %v", prod.TrustedOrigins)
	}
}

func TestCSRF_FetchMetadata(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(testAuthKey, nil, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		site   string
		want   int
	}{
		{"same-origin write", http.MethodPost, "same-origin", http.StatusOK},
		{"cross-site write", http.MethodPost, "cross-site", http.StatusForbidden},
		{"cross-site read", http.MethodGet, "cross-site", http.StatusOK},
		{"non-browser write", http.MethodPatch, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/cms/hero", nil)
			if tt.site != "" {
				req.Header.Set("Sec-Fetch-Site", tt.site)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusForbidden && !strings.Contains(rr.Body.String(), `"success":false`) {
				t.Errorf("body = %q, want JSON error envelope", rr.Body.String())
			}
		})
	}
}
