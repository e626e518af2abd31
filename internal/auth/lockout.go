// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// maxLockout caps the exponential backoff.
const maxLockout = 24 * time.Hour

// LockoutConfig holds configuration for account lockout.
type LockoutConfig struct {
	// MaxFailures locks the account after this many failures inside Window.
	MaxFailures int
	// Duration is the first lockout; each further lockout doubles it.
	Duration time.Duration
	// Window is the period in which failures are counted.
	Window time.Duration
}

// DefaultLockoutConfig returns the production lockout settings.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxFailures: 5,
		Duration:    15 * time.Minute,
		Window:      15 * time.Minute,
	}
}

type failures struct {
	count       int
	first       time.Time
	lockedUntil time.Time
	lockouts    int
}

// Lockout tracks failed logins per account. Per-client throttling is done
// by the login rate limiter; this guards a single account against
// distributed guessing.
type Lockout struct {
	cfg LockoutConfig
	now func() time.Time

	mu       sync.Mutex
	accounts map[string]*failures
}

// NewLockout creates a Lockout. Zero config fields take the defaults.
func NewLockout(cfg LockoutConfig) *Lockout {
	def := DefaultLockoutConfig()
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	return &Lockout{
		cfg:      cfg,
		now:      time.Now,
		accounts: make(map[string]*failures),
	}
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Locked reports whether the account is locked and for how much longer.
func (l *Lockout) Locked(email string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.accounts[accountKey(email)]
	if !ok {
		return false, 0
	}
	if now := l.now(); now.Before(f.lockedUntil) {
		return true, f.lockedUntil.Sub(now)
	}
	return false, 0
}

// Fail records a failed login. It returns the lockout duration when this
// failure locked the account, or 0.
func (l *Lockout) Fail(email string) time.Duration {
	key := accountKey(email)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.accounts[key]
	if !ok {
		l.accounts[key] = &failures{count: 1, first: now}
		return 0
	}
	if now.Sub(f.first) > l.cfg.Window {
		f.count = 1
		f.first = now
		return 0
	}

	f.count++
	if f.count < l.cfg.MaxFailures {
		return 0
	}

	d := l.cfg.Duration
	for i := 0; i < f.lockouts && d < maxLockout; i++ {
		d *= 2
	}
	d = min(d, maxLockout)

	f.lockedUntil = now.Add(d)
	f.lockouts++
	f.count = 0

	slog.Warn("account locked after failed logins",
		"category", "security",
		"email", key,
		"lockouts", f.lockouts,
		"duration", d,
	)
	return d
}

// Succeed clears the failure history for the account.
func (l *Lockout) Succeed(email string) {
	l.mu.Lock()
	delete(l.accounts, accountKey(email))
	l.mu.Unlock()
}

// Sweep drops entries whose lockout and counting window have both expired.
// It returns the number of entries removed.
func (l *Lockout) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, f := range l.accounts {
		if now.After(f.lockedUntil) && now.Sub(f.first) > l.cfg.Window {
			delete(l.accounts, key)
			removed++
		}
	}
	return removed
}
