// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/ratelimit"
	"github.com/olegiv/voyage-cms/internal/sanitize"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/session"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/submission"
)

const msgInvalidCredentials = "Invalid email or password"

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	Responder
	queries *store.Queries
	sm      *scs.SessionManager
	limiter ratelimit.Limiter
	lockout *auth.Lockout
	events  *service.EventService
}

// NewAuthHandler creates a new auth handler. A nil limiter admits every
// login attempt.
func NewAuthHandler(rs Responder, db *sql.DB, sm *scs.SessionManager, limiter ratelimit.Limiter, lockout *auth.Lockout, events *service.EventService) *AuthHandler {
	return &AuthHandler{
		Responder: rs,
		queries:   store.New(db),
		sm:        sm,
		limiter:   limiter,
		lockout:   lockout,
		events:    events,
	}
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func userView(u store.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate implements validation.Validatable.
func (req registerRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat, validation.Length(0, 254)),
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Password, validation.Required, validation.By(func(any) error {
			return auth.ValidatePassword(req.Password)
		})),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements validation.Validatable.
func (req loginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

// Register handles POST /api/auth/register. New accounts are customers
// and are logged in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	req.Email = sanitize.Email(req.Email)
	req.Name = sanitize.Plain(req.Name)
	if err := apperr.Check(req); err != nil {
		h.Error(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	now := time.Now().UTC()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
		Name:         req.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if store.IsUniqueViolation(err) {
		h.Error(w, r, &apperr.ConflictError{Field: "email", Message: "an account with this email already exists"})
		return
	}
	if err != nil {
		h.Error(w, r, err)
		return
	}

	if err := session.Login(r.Context(), h.sm, user.ID); err != nil {
		h.Error(w, r, err)
		return
	}
	h.logAuth(r, model.EventLevelInfo, "Account registered", &user.ID, nil)

	writeJSONSuccess(w, http.StatusCreated, map[string]any{"user": userView(user)})
}

// Login handles POST /api/auth/login. Unknown accounts and wrong passwords
// get the same response and the same password hashing cost.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := submission.ClientIP(r.Header)

	if h.limiter != nil {
		res, err := h.limiter.Allow(r.Context(), "ip:"+ip)
		if err != nil {
			h.logger().Warn("login limiter unavailable, admitting", "error", err)
		} else if !res.Allowed {
			h.logSecurity(r, "Login rate limit exceeded", ip)
			h.Error(w, r, &apperr.RateLimitError{Limit: res.Limit, RetryAfter: res.RetryAfter})
			return
		}
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	req.Email = sanitize.Email(req.Email)
	if err := apperr.Check(req); err != nil {
		h.Error(w, r, err)
		return
	}

	if locked, remaining := h.lockout.Locked(req.Email); locked {
		h.logAuth(r, model.EventLevelWarning, "Login attempt on locked account", nil, map[string]any{"email": req.Email})
		h.Error(w, r, &apperr.RateLimitError{RetryAfter: remaining})
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !store.IsNotFound(err) {
		h.Error(w, r, err)
		return
	}
	if err != nil {
		auth.BurnPasswordCheck(req.Password)
		h.loginFailed(w, r, req.Email, nil)
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.loginFailed(w, r, req.Email, &user.ID)
		return
	}

	if err := session.Login(r.Context(), h.sm, user.ID); err != nil {
		h.Error(w, r, err)
		return
	}
	h.lockout.Succeed(req.Email)

	now := time.Now().UTC()
	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, now); err != nil {
		h.logger().Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(req.Password); err == nil {
			_ = h.queries.UpdateUserPassword(r.Context(), user.ID, hash, now)
		}
	}
	h.logAuth(r, model.EventLevelInfo, "Login succeeded", &user.ID, nil)

	writeJSONSuccess(w, http.StatusOK, map[string]any{"user": userView(user)})
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email string, userID *int64) {
	meta := map[string]any{"email": email}
	if d := h.lockout.Fail(email); d > 0 {
		meta["locked_for"] = d.String()
	}
	h.logAuth(r, model.EventLevelWarning, "Login failed", userID, meta)
	writeJSONError(w, http.StatusUnauthorized, msgInvalidCredentials, nil)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	if err := session.Logout(r.Context(), h.sm); err != nil {
		h.Error(w, r, err)
		return
	}
	if id != nil {
		h.logAuth(r, model.EventLevelInfo, "Logged out", id.IDPtr(), nil)
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	if id == nil {
		h.Error(w, r, apperr.ErrUnauthorized)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"user": userResponse{
		ID:    id.ID,
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
	}})
}

func (h *AuthHandler) logAuth(r *http.Request, level, message string, userID *int64, meta map[string]any) {
	if h.events == nil {
		return
	}
	_ = h.events.LogAuthEvent(r.Context(), level, message, userID, submission.ClientIP(r.Header), meta)
}

func (h *AuthHandler) logSecurity(r *http.Request, message, ip string) {
	if h.events == nil {
		return
	}
	_ = h.events.LogSecurityEvent(r.Context(), model.EventLevelWarning, message, ip, map[string]any{
		"path":       r.URL.Path,
		"user_agent": strings.TrimSpace(r.UserAgent()),
	})
}
