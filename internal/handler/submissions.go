// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/submission"
)

// SubmissionsHandler accepts the public forms and serves their records to
// the CMS.
type SubmissionsHandler struct {
	Responder
	subs *submission.Service
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(rs Responder, subs *submission.Service) *SubmissionsHandler {
	return &SubmissionsHandler{Responder: rs, subs: subs}
}

// submit decodes the form, runs it through the pipeline and writes the
// receipt. Honeypot decoys produce the same 200 receipt as real
// submissions. An undecodable body still passes the rate limiter for
// purpose before it is rejected.
func submit[F any](h *SubmissionsHandler, w http.ResponseWriter, r *http.Request, purpose string, run func(F, submission.Submitter) (submission.Receipt, error)) {
	sub := submission.Identify(r, middleware.GetIdentity(r))

	var form F
	if err := decodeJSON(w, r, &form); err != nil {
		h.Error(w, r, h.subs.Malformed(r.Context(), purpose, err, sub))
		return
	}
	receipt, err := run(form, sub)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Contact handles POST /api/contact.
func (h *SubmissionsHandler) Contact(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.PurposeContact, func(f submission.ContactForm, sub submission.Submitter) (submission.Receipt, error) {
		return h.subs.Contact(r.Context(), f, sub)
	})
}

// Subscribe handles POST /api/newsletter.
func (h *SubmissionsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.PurposeNewsletter, func(f submission.NewsletterForm, sub submission.Submitter) (submission.Receipt, error) {
		return h.subs.Subscribe(r.Context(), f, sub)
	})
}

// Unsubscribe handles POST /api/newsletter/unsubscribe.
func (h *SubmissionsHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.PurposeUnsubscribe, func(f submission.UnsubscribeForm, sub submission.Submitter) (submission.Receipt, error) {
		return h.subs.Unsubscribe(r.Context(), f, sub)
	})
}

// CustomPackage handles POST /api/custom-packages. Requires a logged-in user.
func (h *SubmissionsHandler) CustomPackage(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.PurposeCustomPackage, func(f submission.CustomPackageForm, sub submission.Submitter) (submission.Receipt, error) {
		return h.subs.CustomPackage(r.Context(), f, sub)
	})
}

// Book handles POST /api/bookings.
func (h *SubmissionsHandler) Book(w http.ResponseWriter, r *http.Request) {
	submit(h, w, r, submission.PurposeBooking, func(f submission.BookingForm, sub submission.Submitter) (submission.Receipt, error) {
		return h.subs.Book(r.Context(), f, sub)
	})
}

func listQuery(r *http.Request) (submission.ListQuery, Page) {
	p := parsePage(r)
	return submission.ListQuery{
		Status: r.URL.Query().Get("status"),
		Limit:  p.Limit,
		Offset: p.Offset,
	}, p
}

type statusRequest struct {
	Status string `json:"status"`
}

// ListContacts handles GET /api/cms/contact[?status=&limit=&offset=].
func (h *SubmissionsHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	q, p := listQuery(r)
	items, total, err := h.subs.ListContacts(r.Context(), q, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"items": nonNil(items), "meta": p.meta(total)})
}

// GetContact handles GET /api/cms/contact/{id}.
func (h *SubmissionsHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	item, err := h.subs.GetContact(r.Context(), chi.URLParam(r, "id"), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"item": item})
}

// UpdateContact handles PATCH /api/cms/contact/{id} with {"status": ...}.
func (h *SubmissionsHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	item, err := h.subs.SetContactStatus(r.Context(), chi.URLParam(r, "id"), req.Status, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"item": item})
}

// DeleteContact handles DELETE /api/cms/contact/{id}.
func (h *SubmissionsHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.subs.DeleteContact(r.Context(), chi.URLParam(r, "id"), middleware.GetIdentity(r)); err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// ListSubscriptions handles GET /api/cms/newsletter.
func (h *SubmissionsHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	q, p := listQuery(r)
	items, total, err := h.subs.ListSubscriptions(r.Context(), q, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"items": nonNil(items), "meta": p.meta(total)})
}

// ListCustomPackages handles GET /api/cms/custom-packages.
func (h *SubmissionsHandler) ListCustomPackages(w http.ResponseWriter, r *http.Request) {
	q, p := listQuery(r)
	items, total, err := h.subs.ListCustomPackages(r.Context(), q, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"items": nonNil(items), "meta": p.meta(total)})
}

// GetCustomPackage handles GET /api/cms/custom-packages/{id}.
func (h *SubmissionsHandler) GetCustomPackage(w http.ResponseWriter, r *http.Request) {
	item, err := h.subs.GetCustomPackage(r.Context(), chi.URLParam(r, "id"), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"item": item})
}

// UpdateCustomPackage handles PATCH /api/cms/custom-packages/{id}.
func (h *SubmissionsHandler) UpdateCustomPackage(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	item, err := h.subs.SetCustomPackageStatus(r.Context(), chi.URLParam(r, "id"), req.Status, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"item": item})
}

// ListBookings handles GET /api/cms/bookings.
func (h *SubmissionsHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q, p := listQuery(r)
	items, total, err := h.subs.ListBookings(r.Context(), q, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"items": nonNil(items), "meta": p.meta(total)})
}

// GetBooking handles GET /api/cms/bookings/{id}.
func (h *SubmissionsHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	item, err := h.subs.GetBooking(r.Context(), chi.URLParam(r, "id"), middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"item": item})
}

// UpdateBooking handles PATCH /api/cms/bookings/{id}.
func (h *SubmissionsHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	item, err := h.subs.SetBookingStatus(r.Context(), chi.URLParam(r, "id"), req.Status, middleware.GetIdentity(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"item": item})
}

// DeleteBooking handles DELETE /api/cms/bookings/{id}.
func (h *SubmissionsHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.subs.DeleteBooking(r.Context(), chi.URLParam(r, "id"), middleware.GetIdentity(r)); err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}
