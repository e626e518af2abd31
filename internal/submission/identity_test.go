// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package submission

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/voyage-cms/internal/auth"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1, 10.0.0.2"}, "203.0.113.7"},
		{"empty first token falls back", map[string]string{"X-Forwarded-For": " , 10.0.0.1", "X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "198.51.100.4"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.4"}, "203.0.113.7"},
		{"no headers", nil, UnknownClient},
		{"blank headers", map[string]string{"X-Forwarded-For": "  ", "X-Real-IP": ""}, UnknownClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			if got := ClientIP(h); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentify(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("User-Agent", "curl/8.5.0")
	id := &auth.Identity{ID: 42, Role: "customer"}

	sub := Identify(r, id)
	if sub.IP != UnknownClient {
		t.Errorf("IP = %q, want %q (RemoteAddr is not trusted)", sub.IP, UnknownClient)
	}
	if sub.UserAgent != "curl/8.5.0" {
		t.Errorf("UserAgent = %q", sub.UserAgent)
	}
	if sub.anonymousKey() != "ip:unknown" {
		t.Errorf("anonymousKey = %q", sub.anonymousKey())
	}
	if sub.userKey() != "user:42" {
		t.Errorf("userKey = %q", sub.userKey())
	}
}

func TestSubmitter_Client(t *testing.T) {
	desktop := Submitter{UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"}
	got := desktop.Client()
	if !strings.HasPrefix(got, "Chrome") || !strings.Contains(got, "Windows") || !strings.HasSuffix(got, "(desktop)") {
		t.Errorf("Client = %q", got)
	}
	if desktop.IsBot() {
		t.Error("Chrome should not be a bot")
	}

	bot := Submitter{UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"}
	if !bot.IsBot() {
		t.Error("Googlebot should be a bot")
	}

	if (Submitter{}).Client() != "" {
		t.Error("empty user agent should describe nothing")
	}
}
