// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/store"
)

// AdminHandler serves the read-only operational views of the CMS: the
// audit trail, the notification outbox and the event log. Routes are
// mounted behind middleware.RequireEditor.
type AdminHandler struct {
	Responder
	queries *store.Queries
	audit   *service.AuditService
	events  *service.EventService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(rs Responder, db *sql.DB, audit *service.AuditService, events *service.EventService) *AdminHandler {
	return &AdminHandler{
		Responder: rs,
		queries:   store.New(db),
		audit:     audit,
		events:    events,
	}
}

// Audit handles GET /api/cms/audit[?entity_type=&entity_id=].
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	q := r.URL.Query()
	entries, total, err := h.audit.List(r.Context(), q.Get("entity_type"), q.Get("entity_id"), p.Limit, p.Offset)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"entries": nonNil(entries), "meta": p.meta(total)})
}

// Notifications handles GET /api/cms/notifications[?status=].
func (h *AdminHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	status := r.URL.Query().Get("status")

	items, err := h.queries.ListNotifications(r.Context(), store.ListParams{Status: status, Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	total, err := h.queries.CountNotifications(r.Context(), status)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"notifications": nonNil(items), "meta": p.meta(total)})
}

// Events handles GET /api/cms/events[?category=].
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	category := r.URL.Query().Get("category")

	items, err := h.events.ListEvents(r.Context(), category, p.Limit, p.Offset)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	total, err := h.queries.CountEventsByCategory(r.Context(), category)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"events": nonNil(items), "meta": p.meta(total)})
}
