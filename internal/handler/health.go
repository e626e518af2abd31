// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/voyage-cms/internal/cache"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/version"
)

// Health check states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Pinger is implemented by dependencies that can report connectivity,
// e.g. the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	redis      Pinger
	uploadsDir string
	version    version.Info
	startTime  time.Time
	cacheStats func() cache.Stats
}

// NewHealthHandler creates a new health handler. redis and uploadsDir are
// optional; empty values skip their checks.
func NewHealthHandler(db *sql.DB, redis Pinger, uploadsDir string, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:         db,
		redis:      redis,
		uploadsDir: uploadsDir,
		version:    info,
		startTime:  time.Now(),
	}
}

// WithCacheStats adds cache hit and miss counters to verbose responses.
func (h *HealthHandler) WithCacheStats(stats func() cache.Stats) *HealthHandler {
	h.cacheStats = stats
	return h
}

// HealthStatus is the detailed health response shown to CMS users.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Anonymous callers get only the overall
// status; editors also get the individual checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]Check{"database": h.checkDatabase(ctx)}
	if h.redis != nil {
		checks["redis"] = h.checkRedis(ctx)
	}
	if h.uploadsDir != "" {
		checks["disk"] = h.checkDiskSpace()
	}

	overall := StatusHealthy
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	if !middleware.GetIdentity(r).CanEditContent() {
		writeJSON(w, code, map[string]string{"status": overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
		if h.cacheStats != nil {
			stats := h.cacheStats()
			status.Cache = &stats
		}
	}
	writeJSON(w, code, status)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error(), Latency: time.Since(start).String()}
	}
	return Check{Status: StatusHealthy, Message: "Connected", Latency: time.Since(start).String()}
}

// checkRedis degrades rather than fails: the cache and limiters fall back
// to loading from SQLite and admitting requests.
func (h *HealthHandler) checkRedis(ctx context.Context) Check {
	start := time.Now()
	if err := h.redis.Ping(ctx); err != nil {
		return Check{Status: StatusDegraded, Message: err.Error(), Latency: time.Since(start).String()}
	}
	return Check{Status: StatusHealthy, Message: "Connected", Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkDiskSpace() Check {
	if _, err := os.Stat(h.uploadsDir); os.IsNotExist(err) {
		return Check{Status: StatusHealthy, Message: "Uploads directory does not exist yet"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &stat); err != nil {
		return Check{Status: StatusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	available := formatBytes(availableBytes)

	const minSpace = 100 * 1024 * 1024
	if availableBytes < minSpace {
		return Check{Status: StatusDegraded, Message: "Low disk space: " + available + " available"}
	}
	return Check{Status: StatusHealthy, Message: available + " available"}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
