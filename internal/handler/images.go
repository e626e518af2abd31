// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/service"
)

// multipartOverhead leaves room for the form boundary and the alt field.
const multipartOverhead = 1 << 20

// ImagesHandler handles image uploads for the CMS.
type ImagesHandler struct {
	Responder
	images *service.ImageService
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(rs Responder, images *service.ImageService) *ImagesHandler {
	return &ImagesHandler{Responder: rs, images: images}
}

// List handles GET /api/cms/images.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	items, total, err := h.images.List(r.Context(), p.Limit, p.Offset, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"images": nonNil(items), "meta": p.meta(total)})
}

// Upload handles POST /api/cms/images as multipart/form-data with a
// "file" part and an optional "alt" field.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r)
	if err := service.RequireEditor(actor); err != nil {
		h.Error(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(service.MaxImageSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(w, r, apperr.FieldError("file", "must be at most 10 MB"))
			return
		}
		h.Error(w, r, apperr.FieldError("file", "request must be multipart/form-data"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, r, apperr.FieldError("file", "is required"))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageSize+1))
	if err != nil {
		h.Error(w, r, err)
		return
	}

	img, err := h.images.Upload(r.Context(), header.Filename, data, r.FormValue("alt"), actor)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"image": img})
}

// Update handles PATCH /api/cms/images/{id} with {"alt": ...}.
func (h *ImagesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Alt string `json:"alt"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	img, err := h.images.SetAlt(r.Context(), chi.URLParam(r, "id"), req.Alt, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"image": img})
}

// Delete handles DELETE /api/cms/images/{id}.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.images.Delete(r.Context(), chi.URLParam(r, "id"), middleware.GetIdentity(r)); err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}
