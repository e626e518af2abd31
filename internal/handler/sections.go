// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/section"
)

// SectionsHandler serves page sections to the static site and the CMS.
type SectionsHandler struct {
	Responder
	sections *section.Service
}

// NewSectionsHandler creates a new sections handler.
func NewSectionsHandler(rs Responder, sections *section.Service) *SectionsHandler {
	return &SectionsHandler{Responder: rs, sections: sections}
}

// PublicGet handles GET /api/sections/{type}.
func (h *SectionsHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.sections.Get(r.Context(), model.ModePublic, chi.URLParam(r, "type"), nil)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"section": s})
}

// PublicItems handles GET /api/sections/{type}/items.
func (h *SectionsHandler) PublicItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.sections.List(r.Context(), model.ModePublic, chi.URLParam(r, "type"), nil)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

// Get handles GET /api/cms/{section}?mode=cms|public. Without an editor
// identity the mode falls back to public.
func (h *SectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	mode := model.ParseReadMode(r.URL.Query().Get("mode"))
	s, err := h.sections.Get(r.Context(), mode, chi.URLParam(r, "section"), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"section": s})
}

// Save handles PATCH /api/cms/{section}. The body holds the section fields
// plus an optional "publish" flag.
func (h *SectionsHandler) Save(w http.ResponseWriter, r *http.Request) {
	fields, publish, err := decodeSectionBody(w, r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	s, err := h.sections.Save(r.Context(), chi.URLParam(r, "section"), fields, publish, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"section": s, "published": publish})
}

// Items handles GET /api/cms/{section}/items?mode=cms|public.
func (h *SectionsHandler) Items(w http.ResponseWriter, r *http.Request) {
	mode := model.ParseReadMode(r.URL.Query().Get("mode"))
	items, err := h.sections.List(r.Context(), mode, chi.URLParam(r, "section"), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

// CreateItem handles POST /api/cms/{section}/items.
func (h *SectionsHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	fields, publish, err := decodeSectionBody(w, r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	s, err := h.sections.Create(r.Context(), chi.URLParam(r, "section"), fields, publish, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"section": s, "published": publish})
}

// UpdateItem handles PATCH /api/cms/{section}/items/{id}.
func (h *SectionsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	fields, publish, err := decodeSectionBody(w, r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	s, err := h.sections.Update(r.Context(), chi.URLParam(r, "section"), chi.URLParam(r, "id"), fields, publish, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"section": s, "published": publish})
}

// DeleteItem handles DELETE /api/cms/{section}/items/{id}.
func (h *SectionsHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.sections.Delete(r.Context(), chi.URLParam(r, "section"), chi.URLParam(r, "id"), middleware.GetIdentity(r)); err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Reorder handles POST /api/cms/{section}/items/reorder with {"ids": [...]}.
func (h *SectionsHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.sections.Reorder(r.Context(), chi.URLParam(r, "section"), req.IDs, middleware.GetIdentity(r)); err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Unpublish handles POST /api/cms/{section}/unpublish[?item=id].
func (h *SectionsHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	s, err := h.sections.Unpublish(r.Context(), chi.URLParam(r, "section"), r.URL.Query().Get("item"), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"section": s})
}

// Revisions handles GET /api/cms/{section}/revisions[?item=id].
func (h *SectionsHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	revs, err := h.sections.Revisions(r.Context(), chi.URLParam(r, "section"), r.URL.Query().Get("item"), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"revisions": nonNil(revs)})
}

// Restore handles POST /api/cms/{section}/revisions/{revision}/restore[?item=id].
// The restored content becomes the draft; publishing is a separate step.
func (h *SectionsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	rev, err := strconv.ParseInt(chi.URLParam(r, "revision"), 10, 64)
	if err != nil || rev < 1 {
		h.Error(w, r, apperr.FieldError("revision", "must be a positive integer"))
		return
	}
	s, err := h.sections.Restore(r.Context(), chi.URLParam(r, "section"), r.URL.Query().Get("item"), rev, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"section": s})
}

// decodeSectionBody splits the request body into content fields and the
// publish flag.
func decodeSectionBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool, error) {
	fields := map[string]any{}
	if err := decodeJSON(w, r, &fields); err != nil {
		return nil, false, err
	}

	publish := false
	if v, ok := fields["publish"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return nil, false, apperr.FieldError("publish", "must be a boolean")
		}
		publish = b
		delete(fields, "publish")
	}
	return fields, publish, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
