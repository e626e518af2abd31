// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package submission

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mileusna/useragent"

	"github.com/olegiv/voyage-cms/internal/auth"
)

// UnknownClient is the rate-limit key of requests without forwarding headers.
const UnknownClient = "unknown"

// Submitter identifies who sent a form.
type Submitter struct {
	// IP is the forwarded client address, or UnknownClient.
	IP        string
	UserAgent string
	Identity  *auth.Identity
}

// ClientIP derives the anonymous rate-limit key from the forwarding
// headers: the first X-Forwarded-For entry, then X-Real-IP, then
// UnknownClient.
func ClientIP(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}

// Identify builds the submitter of r. identity may be nil.
func Identify(r *http.Request, identity *auth.Identity) Submitter {
	return Submitter{
		IP:        ClientIP(r.Header),
		UserAgent: r.UserAgent(),
		Identity:  identity,
	}
}

// anonymousKey is the limiter key for forms open to anyone.
func (s Submitter) anonymousKey() string {
	return "ip:" + s.IP
}

// userKey is the limiter key for forms that require an identity.
func (s Submitter) userKey() string {
	return "user:" + strconv.FormatInt(s.Identity.ID, 10)
}

// Client describes the submitter's browser, e.g. "Firefox 128.0 on Linux (desktop)".
func (s Submitter) Client() string {
	if s.UserAgent == "" {
		return ""
	}
	ua := useragent.Parse(s.UserAgent)

	name := ua.Name
	if name == "" {
		name = "Unknown"
	}
	if ua.Version != "" {
		name += " " + ua.Version
	}
	platform := ua.OS
	if platform == "" {
		platform = "Unknown"
	}
	return fmt.Sprintf("%s on %s (%s)", name, platform, deviceType(ua))
}

// IsBot reports whether the user agent identifies itself as a crawler.
func (s Submitter) IsBot() bool {
	return s.UserAgent != "" && useragent.Parse(s.UserAgent).Bot
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Bot:
		return "bot"
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	default:
		return "desktop"
	}
}
