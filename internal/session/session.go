// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session wires scs cookie sessions backed by the SQLite sessions table.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// KeyUserID is the session key holding the logged-in user's id.
const KeyUserID = "user_id"

// Lifetime is the absolute session lifetime.
const Lifetime = 24 * time.Hour

// New creates a session manager configured with the SQLite store.
// Production cookies use the __Host- prefix, which requires Secure and Path=/.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.Name = "voyage_session"
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-voyage_session"
	}

	return sm
}

// Login binds userID to the session, rotating the token first to prevent fixation.
func Login(ctx context.Context, sm *scs.SessionManager, userID int64) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, KeyUserID, userID)
	return nil
}

// Logout destroys the session.
func Logout(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// UserID returns the logged-in user's id, if any.
func UserID(ctx context.Context, sm *scs.SessionManager) (int64, bool) {
	id := sm.GetInt64(ctx, KeyUserID)
	return id, id != 0
}
