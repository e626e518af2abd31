// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/catalogue"
	"github.com/olegiv/voyage-cms/internal/middleware"
)

// CatalogueHandler serves destinations and packages.
type CatalogueHandler struct {
	Responder
	catalogue *catalogue.Service
}

// NewCatalogueHandler creates a new catalogue handler.
func NewCatalogueHandler(rs Responder, c *catalogue.Service) *CatalogueHandler {
	return &CatalogueHandler{Responder: rs, catalogue: c}
}

// parseIDParam reads a numeric {id}. Malformed ids cannot exist, so they
// are reported as not found.
func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

// PublicDestinations handles GET /api/destinations.
func (h *CatalogueHandler) PublicDestinations(w http.ResponseWriter, r *http.Request) {
	ds, err := h.catalogue.PublishedDestinations(r.Context())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"destinations": nonNil(ds)})
}

// PublicDestination handles GET /api/destinations/{slug}.
func (h *CatalogueHandler) PublicDestination(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalogue.PublishedDestination(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"destination": d})
}

// PublicPackages handles GET /api/packages[?destination=slug].
func (h *CatalogueHandler) PublicPackages(w http.ResponseWriter, r *http.Request) {
	ps, err := h.catalogue.PublishedPackages(r.Context(), r.URL.Query().Get("destination"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"packages": nonNil(ps)})
}

// PublicPackage handles GET /api/packages/{slug}.
func (h *CatalogueHandler) PublicPackage(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalogue.PublishedPackage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"package": p})
}

// ListDestinations handles GET /api/cms/destinations.
func (h *CatalogueHandler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	ds, err := h.catalogue.ListDestinations(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"destinations": nonNil(ds)})
}

// GetDestination handles GET /api/cms/destinations/{id}.
func (h *CatalogueHandler) GetDestination(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	d, err := h.catalogue.GetDestination(r.Context(), id, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"destination": d})
}

// CreateDestination handles POST /api/cms/destinations.
func (h *CatalogueHandler) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var in catalogue.DestinationInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}
	d, err := h.catalogue.CreateDestination(r.Context(), in, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"destination": d})
}

// UpdateDestination handles PATCH /api/cms/destinations/{id}. Fields
// missing from the body keep their current values.
func (h *CatalogueHandler) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	actor := middleware.GetIdentity(r)

	current, err := h.catalogue.GetDestination(r.Context(), id, actor)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	in := catalogue.EditDestination(current)
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	d, err := h.catalogue.UpdateDestination(r.Context(), id, in, actor)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"destination": d})
}

// DeleteDestination handles DELETE /api/cms/destinations/{id}.
func (h *CatalogueHandler) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.catalogue.DeleteDestination(r.Context(), id, middleware.GetIdentity(r)); err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// ListPackages handles GET /api/cms/packages.
func (h *CatalogueHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	ps, err := h.catalogue.ListPackages(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"packages": nonNil(ps)})
}

// GetPackage handles GET /api/cms/packages/{id}.
func (h *CatalogueHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	p, err := h.catalogue.GetPackage(r.Context(), id, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"package": p})
}

// CreatePackage handles POST /api/cms/packages.
func (h *CatalogueHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var in catalogue.PackageInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}
	p, err := h.catalogue.CreatePackage(r.Context(), in, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"package": p})
}

// UpdatePackage handles PATCH /api/cms/packages/{id}.
func (h *CatalogueHandler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	actor := middleware.GetIdentity(r)

	current, err := h.catalogue.GetPackage(r.Context(), id, actor)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	in := catalogue.EditPackage(current)
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	p, err := h.catalogue.UpdatePackage(r.Context(), id, in, actor)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"package": p})
}

// DeletePackage handles DELETE /api/cms/packages/{id}.
func (h *CatalogueHandler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.catalogue.DeletePackage(r.Context(), id, middleware.GetIdentity(r)); err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}
