// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_EmptyPathDisabled(t *testing.T) {
	l, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l.Enabled() {
		t.Error("Enabled() = true without a database")
	}
	if got := l.Country("8.8.8.8"); got != "" {
		t.Errorf("Country = %q, want empty", got)
	}
	if reloaded, err := l.Reload(); err != nil || reloaded {
		t.Errorf("Reload = %v, %v; want false, nil", reloaded, err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mmdb")
	if err := os.WriteFile(path, []byte("not a database"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for corrupt database")
	}
}

func TestNilLocator(t *testing.T) {
	var l *Locator
	if l.Enabled() || l.Country("1.1.1.1") != "" {
		t.Error("nil locator should be disabled")
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestRoutable(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"8.8.8.8", true},
		{"2001:4860:4860::8888", true},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"127.0.0.1", false},
		{"::1", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"0.0.0.0", false},
	}
	for _, tt := range tests {
		if got := routable(net.ParseIP(tt.ip)); got != tt.want {
			t.Errorf("routable(%s) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}
