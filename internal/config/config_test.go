// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-Secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "VOYAGE_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/voyage.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/voyage.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.RateLimitBackend != RateLimitMemory {
		t.Errorf("RateLimitBackend = %q, want %q in development", cfg.RateLimitBackend, RateLimitMemory)
	}
	if cfg.MailProvider != MailLog {
		t.Errorf("MailProvider = %q, want %q", cfg.MailProvider, MailLog)
	}
	if cfg.StorageBackend != StorageLocal {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, StorageLocal)
	}
	if cfg.CacheTTLDuration() != 5*time.Minute {
		t.Errorf("CacheTTLDuration() = %s, want 5m", cfg.CacheTTLDuration())
	}
	if cfg.RebuildHookEnabled() {
		t.Error("RebuildHookEnabled() should be false by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "VOYAGE_SESSION_SECRET", testSecret)
	setEnv(t, "VOYAGE_SERVER_HOST", "0.0.0.0")
	setEnv(t, "VOYAGE_SERVER_PORT", "3000")
	setEnv(t, "VOYAGE_CORS_ORIGINS", "https://example.travel,https://www.example.travel")
	setEnv(t, "VOYAGE_REBUILD_HOOK_URL", "https://hooks.example.com/build")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://www.example.travel" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.RebuildHookEnabled() {
		t.Error("RebuildHookEnabled() should be true")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without VOYAGE_SESSION_SECRET")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "VOYAGE_SESSION_SECRET", "short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail with a short secret")
	}
	if !strings.Contains(err.Error(), "at least 32 bytes") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WeakSecret(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		os.Clearenv()
		setEnv(t, "VOYAGE_SESSION_SECRET", weak)
		if _, err := Load(); err == nil {
			t.Errorf("Load() should reject known weak secret %q", weak)
		}
	}
}

func TestLoad_RateLimitBackend(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    string
		wantErr bool
	}{
		{
			name:    "production without redis fails",
			env:     map[string]string{"VOYAGE_ENV": "production"},
			wantErr: true,
		},
		{
			name: "production with explicit memory",
			env:  map[string]string{"VOYAGE_ENV": "production", "VOYAGE_RATE_LIMIT_BACKEND": "memory"},
			want: RateLimitMemory,
		},
		{
			name: "redis url implies redis",
			env:  map[string]string{"VOYAGE_ENV": "production", "VOYAGE_REDIS_URL": "redis://localhost:6379/0"},
			want: RateLimitRedis,
		},
		{
			name:    "redis backend without url fails",
			env:     map[string]string{"VOYAGE_RATE_LIMIT_BACKEND": "redis"},
			wantErr: true,
		},
		{
			name:    "unknown backend fails",
			env:     map[string]string{"VOYAGE_RATE_LIMIT_BACKEND": "none"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "VOYAGE_SESSION_SECRET", testSecret)
			for k, v := range tt.env {
				setEnv(t, k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.RateLimitBackend != tt.want {
				t.Errorf("RateLimitBackend = %q, want %q", cfg.RateLimitBackend, tt.want)
			}
		})
	}
}

func TestLoad_ProviderValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown mail provider", map[string]string{"VOYAGE_MAIL_PROVIDER": "smtp"}},
		{"s3 without bucket", map[string]string{"VOYAGE_STORAGE_BACKEND": "s3"}},
		{"unknown storage", map[string]string{"VOYAGE_STORAGE_BACKEND": "ftp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "VOYAGE_SESSION_SECRET", testSecret)
			for k, v := range tt.env {
				setEnv(t, k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaaaaaAAAAAAAAAAAAAAAA", false},
		{"aaaaaaaaaaaAAAAAAAAAAA1111111111", true},
		{"abc-DEF-ghi-JKL-mno-PQR-stu-VWX!", true},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
