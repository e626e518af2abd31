// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/store"
)

// ListQuery selects one page of submissions. An empty Status matches all.
type ListQuery struct {
	Status string
	Limit  int64
	Offset int64
}

func (q ListQuery) params() store.ListParams {
	return store.ListParams{Status: q.Status, Limit: q.Limit, Offset: q.Offset}
}

// CustomPackageRequest is a stored request with its destinations decoded.
type CustomPackageRequest struct {
	store.CustomPackageRequest
	Destinations []string `json:"destinations"`
}

func decodeRequest(r store.CustomPackageRequest) CustomPackageRequest {
	out := CustomPackageRequest{CustomPackageRequest: r}
	_ = json.Unmarshal([]byte(r.Destinations), &out.Destinations)
	return out
}

func requireEditor(actor *auth.Identity) error {
	if actor == nil {
		return apperr.ErrUnauthorized
	}
	if !actor.CanEditContent() {
		return apperr.ErrForbidden
	}
	return nil
}

func checkStatus(status string, allowed []string) error {
	if !slices.Contains(allowed, status) {
		return apperr.FieldError("status", "must be one of "+fmt.Sprint(allowed))
	}
	return nil
}

// ListContacts returns a page of contact enquiries and the total count.
func (s *Service) ListContacts(ctx context.Context, q ListQuery, actor *auth.Identity) ([]store.ContactInquiry, int64, error) {
	if err := requireEditor(actor); err != nil {
		return nil, 0, err
	}
	items, err := s.queries.ListContactInquiries(ctx, q.params())
	if err != nil {
		return nil, 0, fmt.Errorf("listing contact inquiries: %w", err)
	}
	total, err := s.queries.CountContactInquiries(ctx, q.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting contact inquiries: %w", err)
	}
	return items, total, nil
}

// GetContact returns one contact enquiry.
func (s *Service) GetContact(ctx context.Context, id string, actor *auth.Identity) (store.ContactInquiry, error) {
	if err := requireEditor(actor); err != nil {
		return store.ContactInquiry{}, err
	}
	c, err := s.queries.GetContactInquiry(ctx, id)
	if store.IsNotFound(err) {
		return c, apperr.ErrNotFound
	}
	return c, err
}

// SetContactStatus moves a contact enquiry through its workflow.
func (s *Service) SetContactStatus(ctx context.Context, id, status string, actor *auth.Identity) (store.ContactInquiry, error) {
	var out store.ContactInquiry
	if err := requireEditor(actor); err != nil {
		return out, err
	}
	if err := checkStatus(status, model.InquiryStatuses); err != nil {
		return out, err
	}

	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		out, err = q.UpdateContactInquiryStatus(ctx, id, status, s.now())
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		return service.RecordAudit(ctx, q, model.AuditUpdate, model.EntityContactInquiry, id, actor, s.now(), map[string]any{"status": status})
	})
	return out, err
}

// DeleteContact removes a contact enquiry.
func (s *Service) DeleteContact(ctx context.Context, id string, actor *auth.Identity) error {
	if err := requireEditor(actor); err != nil {
		return err
	}
	return store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		n, err := q.DeleteContactInquiry(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.ErrNotFound
		}
		return service.RecordAudit(ctx, q, model.AuditDelete, model.EntityContactInquiry, id, actor, s.now(), nil)
	})
}

// ListSubscriptions returns a page of newsletter subscriptions and the total count.
func (s *Service) ListSubscriptions(ctx context.Context, q ListQuery, actor *auth.Identity) ([]store.NewsletterSubscription, int64, error) {
	if err := requireEditor(actor); err != nil {
		return nil, 0, err
	}
	items, err := s.queries.ListNewsletterSubscriptions(ctx, q.params())
	if err != nil {
		return nil, 0, fmt.Errorf("listing subscriptions: %w", err)
	}
	total, err := s.queries.CountNewsletterSubscriptions(ctx, q.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting subscriptions: %w", err)
	}
	return items, total, nil
}

// ListCustomPackages returns a page of custom package requests and the total count.
func (s *Service) ListCustomPackages(ctx context.Context, q ListQuery, actor *auth.Identity) ([]CustomPackageRequest, int64, error) {
	if err := requireEditor(actor); err != nil {
		return nil, 0, err
	}
	rows, err := s.queries.ListCustomPackageRequests(ctx, q.params())
	if err != nil {
		return nil, 0, fmt.Errorf("listing custom package requests: %w", err)
	}
	total, err := s.queries.CountCustomPackageRequests(ctx, q.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting custom package requests: %w", err)
	}
	items := make([]CustomPackageRequest, 0, len(rows))
	for _, r := range rows {
		items = append(items, decodeRequest(r))
	}
	return items, total, nil
}

// GetCustomPackage returns one custom package request.
func (s *Service) GetCustomPackage(ctx context.Context, id string, actor *auth.Identity) (CustomPackageRequest, error) {
	if err := requireEditor(actor); err != nil {
		return CustomPackageRequest{}, err
	}
	r, err := s.queries.GetCustomPackageRequest(ctx, id)
	if store.IsNotFound(err) {
		return CustomPackageRequest{}, apperr.ErrNotFound
	}
	if err != nil {
		return CustomPackageRequest{}, err
	}
	return decodeRequest(r), nil
}

// SetCustomPackageStatus moves a custom package request through its workflow.
func (s *Service) SetCustomPackageStatus(ctx context.Context, id, status string, actor *auth.Identity) (CustomPackageRequest, error) {
	if err := requireEditor(actor); err != nil {
		return CustomPackageRequest{}, err
	}
	if err := checkStatus(status, model.RequestStatuses); err != nil {
		return CustomPackageRequest{}, err
	}

	var row store.CustomPackageRequest
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		row, err = q.UpdateCustomPackageRequestStatus(ctx, id, status, s.now())
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		return service.RecordAudit(ctx, q, model.AuditUpdate, model.EntityCustomPackage, id, actor, s.now(), map[string]any{"status": status})
	})
	if err != nil {
		return CustomPackageRequest{}, err
	}
	return decodeRequest(row), nil
}

// ListBookings returns a page of bookings and the total count.
func (s *Service) ListBookings(ctx context.Context, q ListQuery, actor *auth.Identity) ([]store.Booking, int64, error) {
	if err := requireEditor(actor); err != nil {
		return nil, 0, err
	}
	items, err := s.queries.ListBookings(ctx, q.params())
	if err != nil {
		return nil, 0, fmt.Errorf("listing bookings: %w", err)
	}
	total, err := s.queries.CountBookings(ctx, q.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting bookings: %w", err)
	}
	return items, total, nil
}

// GetBooking returns one booking.
func (s *Service) GetBooking(ctx context.Context, id string, actor *auth.Identity) (store.Booking, error) {
	if err := requireEditor(actor); err != nil {
		return store.Booking{}, err
	}
	b, err := s.queries.GetBooking(ctx, id)
	if store.IsNotFound(err) {
		return b, apperr.ErrNotFound
	}
	return b, err
}

// SetBookingStatus moves a booking through its workflow.
func (s *Service) SetBookingStatus(ctx context.Context, id, status string, actor *auth.Identity) (store.Booking, error) {
	var out store.Booking
	if err := requireEditor(actor); err != nil {
		return out, err
	}
	if err := checkStatus(status, model.BookingStatuses); err != nil {
		return out, err
	}

	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		out, err = q.UpdateBookingStatus(ctx, id, status, s.now())
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		return service.RecordAudit(ctx, q, model.AuditUpdate, model.EntityBooking, id, actor, s.now(), map[string]any{"status": status})
	})
	return out, err
}

// DeleteBooking removes a booking.
func (s *Service) DeleteBooking(ctx context.Context, id string, actor *auth.Identity) error {
	if err := requireEditor(actor); err != nil {
		return err
	}
	return store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		n, err := q.DeleteBooking(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.ErrNotFound
		}
		return service.RecordAudit(ctx, q, model.AuditDelete, model.EntityBooking, id, actor, s.now(), nil)
	})
}
