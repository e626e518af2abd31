// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for identity loading,
// authorization, rate limiting and response hardening.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/session"
	"github.com/olegiv/voyage-cms/internal/store"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

// ContextKeyIdentity is the context key for the authenticated identity.
const ContextKeyIdentity ContextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// GetIdentity returns the identity loaded for r, or nil for anonymous requests.
func GetIdentity(r *http.Request) *auth.Identity {
	id, _ := r.Context().Value(ContextKeyIdentity).(*auth.Identity)
	return id
}

// LoadIdentity resolves the session's user and stores the identity in the
// request context. Sessions pointing at a deleted user are treated as
// anonymous. Must run inside sm.LoadAndSave.
func LoadIdentity(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := session.UserID(r.Context(), sm)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				if !store.IsNotFound(err) {
					slog.Error("failed to load session user", "user_id", userID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			id := &auth.Identity{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r) == nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEditor rejects anonymous requests with 401 and identities without
// CMS access with 403.
func RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r)
		if id == nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !id.CanEditContent() {
			slog.Warn("CMS access denied", "category", "security", "user_id", id.ID, "path", r.URL.Path)
			writeJSONError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSONError writes the error envelope shared with the handlers.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
