// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf checks Fetch metadata headers rather than tokens, so
// cross-origin writes are rejected unless their origin is trusted.
type CSRFConfig struct {
	// AuthKey is a 32-byte key. The library keeps it for API compatibility.
	AuthKey []byte

	// ErrorHandler is called when CSRF validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins are host[:port] values allowed to make cross-origin
	// requests, e.g. the static site that embeds the forms.
	TrustedOrigins []string
}

// DefaultCSRFConfig trusts the configured CORS origins, and localhost in
// development.
func DefaultCSRFConfig(authKey []byte, corsOrigins []string, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	for _, origin := range corsOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			cfg.TrustedOrigins = append(cfg.TrustedOrigins, u.Host)
		}
	}
	if isDev {
		cfg.TrustedOrigins = append(cfg.TrustedOrigins,
			"localhost:8080",
			"127.0.0.1:8080",
			"localhost:4321",
		)
	}
	return cfg
}

// CSRF returns a middleware that provides CSRF protection.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("CSRF validation failed",
		"category", "security",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	writeJSONError(w, http.StatusForbidden, "cross-origin request rejected")
}
