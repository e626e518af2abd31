// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package submission implements the public form pipeline shared by the
// contact, newsletter, custom package, and booking endpoints:
// identify, rate limit, honeypot, sanitize, validate, persist with the
// outbox rows, notify, respond.
package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/geoip"
	"github.com/olegiv/voyage-cms/internal/mail"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/notify"
	"github.com/olegiv/voyage-cms/internal/ratelimit"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/store"
)

// Success messages.
const (
	ContactMessage       = "Thank you for your message. We will get back to you soon."
	NewsletterMessage    = "Thanks for subscribing!"
	UnsubscribeMessage   = "You have been unsubscribed."
	CustomPackageMessage = "Your request has been received. A travel designer will prepare a quote."
	BookingMessage       = "Your booking request has been received. We will confirm availability shortly."
)

// Receipt is the response body of an accepted submission.
type Receipt struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Notifier wakes the outbox dispatcher for freshly committed rows.
type Notifier interface {
	Notify(ids ...string)
}

// Options configures a Service. Every field is optional; a nil Limits
// admits every request and a nil Outbox queues no email.
type Options struct {
	Limits   *ratelimit.Set
	Outbox   *notify.Outbox
	Notifier Notifier
	Events   *service.EventService
	Geo      *geoip.Locator
	Logger   *slog.Logger
}

// Form purposes. They name the limiter window and appear in security events.
const (
	PurposeContact       = "contact"
	PurposeNewsletter    = "newsletter"
	PurposeUnsubscribe   = "unsubscribe"
	PurposeCustomPackage = "custom-package"
	PurposeBooking       = "booking"
)

// Service runs the submission pipeline.
type Service struct {
	db       *sql.DB
	queries  *store.Queries
	limits   *ratelimit.Set
	outbox   *notify.Outbox
	notifier Notifier
	events   *service.EventService
	geo      *geoip.Locator
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a submission service.
func NewService(db *sql.DB, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Limits == nil {
		opts.Limits = &ratelimit.Set{}
	}
	return &Service{
		db:       db,
		queries:  store.New(db),
		limits:   opts.Limits,
		outbox:   opts.Outbox,
		notifier: opts.Notifier,
		events:   opts.Events,
		geo:      opts.Geo,
		logger:   opts.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Contact records a contact enquiry.
func (s *Service) Contact(ctx context.Context, form ContactForm, sub Submitter) (Receipt, error) {
	const purpose = PurposeContact

	if err := s.gate(ctx, purpose, sub); err != nil {
		return Receipt{}, err
	}
	if form.Tripped() {
		return s.decoy(ctx, purpose, ContactMessage, sub), nil
	}
	form.sanitize()
	if err := s.validate(ctx, purpose, form, sub); err != nil {
		return Receipt{}, err
	}

	id := uuid.NewString()
	country := s.geo.Country(sub.IP)
	vars := map[string]any{
		"id":      id,
		"name":    form.Name,
		"email":   form.Email,
		"phone":   form.Phone,
		"subject": form.Subject,
		"message": form.Message,
		"country": country,
	}
	rows := s.prepare(ctx, purpose,
		s.adminRequest(mail.TemplateContactAdmin, id, vars),
		notify.Request{Template: mail.TemplateContactConfirmation, Recipient: form.Email, Reference: id, Vars: vars},
	)

	ids, err := s.persist(ctx, rows, func(q *store.Queries) error {
		_, err := q.CreateContactInquiry(ctx, store.CreateContactInquiryParams{
			ID:          id,
			Name:        form.Name,
			Email:       form.Email,
			Phone:       form.Phone,
			Subject:     form.Subject,
			Message:     form.Message,
			IpAddress:   sub.IP,
			Client:      sub.Client(),
			CountryCode: country,
			CreatedAt:   s.now(),
		})
		return err
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("saving contact inquiry: %w", err)
	}

	s.accepted(ctx, purpose, id, sub, ids)
	return Receipt{Success: true, Message: ContactMessage, ID: id}, nil
}

// Subscribe adds or reactivates a newsletter subscription. Subscribing an
// address that is already active changes nothing and sends no email.
func (s *Service) Subscribe(ctx context.Context, form NewsletterForm, sub Submitter) (Receipt, error) {
	const purpose = PurposeNewsletter

	if err := s.gate(ctx, purpose, sub); err != nil {
		return Receipt{}, err
	}
	if form.Tripped() {
		return s.decoy(ctx, purpose, NewsletterMessage, sub), nil
	}
	form.sanitize()
	if err := s.validate(ctx, purpose, form, sub); err != nil {
		return Receipt{}, err
	}
	if form.Source == "" {
		form.Source = "website"
	}

	rows := s.prepare(ctx, purpose, notify.Request{
		Template:  mail.TemplateNewsletterWelcome,
		Recipient: form.Email,
		Vars:      map[string]any{"email": form.Email, "name": form.Name},
	})

	var (
		subscription store.NewsletterSubscription
		ids          []string
	)
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		existing, err := q.GetNewsletterSubscriptionByEmail(ctx, form.Email)
		if err != nil && !store.IsNotFound(err) {
			return err
		}
		wasActive := err == nil && existing.Status == model.SubscriptionActive

		subscription, err = q.UpsertNewsletterSubscription(ctx, store.UpsertNewsletterSubscriptionParams{
			ID:     uuid.NewString(),
			Email:  form.Email,
			Name:   form.Name,
			Source: form.Source,
			At:     s.now(),
		})
		if err != nil || wasActive {
			return err
		}

		for i := range rows {
			rows[i].Reference = subscription.ID
		}
		ids, err = notify.Insert(ctx, q, rows)
		return err
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("saving newsletter subscription: %w", err)
	}

	s.accepted(ctx, purpose, subscription.ID, sub, ids)
	return Receipt{Success: true, Message: NewsletterMessage, ID: subscription.ID}, nil
}

// Unsubscribe deactivates a subscription. The response is the same whether
// or not the address was subscribed.
func (s *Service) Unsubscribe(ctx context.Context, form UnsubscribeForm, sub Submitter) (Receipt, error) {
	form.sanitize()
	if err := s.validate(ctx, PurposeUnsubscribe, form, sub); err != nil {
		return Receipt{}, err
	}

	n, err := s.queries.UnsubscribeNewsletter(ctx, form.Email, s.now())
	if err != nil {
		return Receipt{}, fmt.Errorf("unsubscribing: %w", err)
	}
	if n > 0 && s.events != nil {
		_ = s.events.LogSubmissionEvent(ctx, "Newsletter unsubscribed", sub.IP, nil)
	}
	return Receipt{Success: true, Message: UnsubscribeMessage}, nil
}

// CustomPackage records a custom package request. It requires an identity.
func (s *Service) CustomPackage(ctx context.Context, form CustomPackageForm, sub Submitter) (Receipt, error) {
	const purpose = PurposeCustomPackage

	if err := s.gate(ctx, purpose, sub); err != nil {
		return Receipt{}, err
	}
	if form.Tripped() {
		return s.decoy(ctx, purpose, CustomPackageMessage, sub), nil
	}
	form.sanitize()
	if err := s.validate(ctx, purpose, form, sub); err != nil {
		return Receipt{}, err
	}

	destinations, err := json.Marshal(form.Destinations)
	if err != nil {
		return Receipt{}, fmt.Errorf("encoding destinations: %w", err)
	}

	id := uuid.NewString()
	vars := map[string]any{
		"id":           id,
		"name":         form.Name,
		"email":        form.Email,
		"phone":        form.Phone,
		"destinations": form.Destinations,
		"start_date":   form.StartDate,
		"end_date":     form.EndDate,
		"travellers":   form.Travellers,
		"budget":       form.Budget,
		"notes":        form.Notes,
	}
	rows := s.prepare(ctx, purpose,
		s.adminRequest(mail.TemplateCustomPackageAdmin, id, vars),
		notify.Request{Template: mail.TemplateCustomPackageConfirmation, Recipient: form.Email, Reference: id, Vars: vars},
	)

	ids, err := s.persist(ctx, rows, func(q *store.Queries) error {
		_, err := q.CreateCustomPackageRequest(ctx, store.CreateCustomPackageRequestParams{
			ID:           id,
			UserID:       sub.Identity.ID,
			Name:         form.Name,
			Email:        form.Email,
			Phone:        form.Phone,
			Destinations: string(destinations),
			StartDate:    form.StartDate,
			EndDate:      form.EndDate,
			Travellers:   int64(form.Travellers),
			Budget:       form.Budget,
			Notes:        form.Notes,
			CreatedAt:    s.now(),
		})
		return err
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("saving custom package request: %w", err)
	}

	s.accepted(ctx, purpose, id, sub, ids)
	return Receipt{Success: true, Message: CustomPackageMessage, ID: id}, nil
}

// Book records a booking request for a published package.
func (s *Service) Book(ctx context.Context, form BookingForm, sub Submitter) (Receipt, error) {
	const purpose = PurposeBooking

	if err := s.gate(ctx, purpose, sub); err != nil {
		return Receipt{}, err
	}
	if form.Tripped() {
		return s.decoy(ctx, purpose, BookingMessage, sub), nil
	}
	form.sanitize()
	if err := s.validate(ctx, purpose, form, sub); err != nil {
		return Receipt{}, err
	}

	pkg, err := s.queries.GetPublishedPackageBySlug(ctx, form.Package)
	if store.IsNotFound(err) {
		return Receipt{}, fmt.Errorf("package %q: %w", form.Package, apperr.ErrNotFound)
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("loading package: %w", err)
	}

	id := uuid.NewString()
	vars := map[string]any{
		"id":            id,
		"name":          form.Name,
		"email":         form.Email,
		"phone":         form.Phone,
		"package_title": pkg.Title,
		"travel_date":   form.TravelDate,
		"travellers":    form.Travellers,
		"notes":         form.Notes,
	}
	rows := s.prepare(ctx, purpose,
		s.adminRequest(mail.TemplateBookingAdmin, id, vars),
		notify.Request{Template: mail.TemplateBookingConfirmation, Recipient: form.Email, Reference: id, Vars: vars},
	)

	var userID *int64
	if sub.Identity != nil {
		userID = &sub.Identity.ID
	}
	ids, err := s.persist(ctx, rows, func(q *store.Queries) error {
		_, err := q.CreateBooking(ctx, store.CreateBookingParams{
			ID:         id,
			PackageID:  pkg.ID,
			UserID:     store.NullID(userID),
			Name:       form.Name,
			Email:      form.Email,
			Phone:      form.Phone,
			TravelDate: form.TravelDate,
			Travellers: int64(form.Travellers),
			Notes:      form.Notes,
			IpAddress:  sub.IP,
			CreatedAt:  s.now(),
		})
		return err
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("saving booking: %w", err)
	}

	s.accepted(ctx, purpose, id, sub, ids)
	return Receipt{Success: true, Message: BookingMessage, ID: id}, nil
}

// gate runs the identify and rate-limit steps for purpose. Custom package
// requests need an identity and are limited per user; the other forms are
// limited per client address. Unsubscribing is not limited.
func (s *Service) gate(ctx context.Context, purpose string, sub Submitter) error {
	switch purpose {
	case PurposeContact:
		return s.admit(ctx, s.limits.Contact, purpose, sub.anonymousKey(), sub)
	case PurposeNewsletter:
		return s.admit(ctx, s.limits.Newsletter, purpose, sub.anonymousKey(), sub)
	case PurposeBooking:
		return s.admit(ctx, s.limits.Booking, purpose, sub.anonymousKey(), sub)
	case PurposeCustomPackage:
		if sub.Identity == nil {
			return apperr.ErrUnauthorized
		}
		return s.admit(ctx, s.limits.CustomPackage, purpose, sub.userKey(), sub)
	default:
		return nil
	}
}

// Malformed handles a body that could not be decoded into the form for
// purpose. The request still passes the identify and rate-limit steps, so
// garbage counts against the window like any other submission; if admitted
// it is logged as a validation rejection and decodeErr is returned.
func (s *Service) Malformed(ctx context.Context, purpose string, decodeErr error, sub Submitter) error {
	if err := s.gate(ctx, purpose, sub); err != nil {
		return err
	}
	meta := map[string]any{"form": purpose, "fields": []string{"body"}}
	s.security(ctx, model.EventLevelInfo, "Submission rejected by validation", sub, meta)
	return decodeErr
}

// admit consults the limiter. A limiter that cannot answer admits the
// request and logs a warning.
func (s *Service) admit(ctx context.Context, limiter ratelimit.Limiter, purpose, key string, sub Submitter) error {
	if limiter == nil {
		return nil
	}

	res, err := limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn("rate limiter unavailable, admitting request",
			"category", model.EventCategorySecurity,
			"form", purpose,
			"error", err)
		return nil
	}
	if res.Allowed {
		return nil
	}

	s.security(ctx, model.EventLevelWarning, "Rate limit exceeded", sub, map[string]any{
		"form":  purpose,
		"limit": res.Limit,
	})
	return &apperr.RateLimitError{Limit: res.Limit, RetryAfter: res.RetryAfter}
}

// decoy answers a honeypot submission with an ordinary-looking receipt.
func (s *Service) decoy(ctx context.Context, purpose, message string, sub Submitter) Receipt {
	s.security(ctx, model.EventLevelInfo, "Honeypot triggered", sub, map[string]any{"form": purpose})
	return Receipt{Success: true, Message: message, ID: uuid.NewString()}
}

func (s *Service) validate(ctx context.Context, purpose string, form interface{ Validate() error }, sub Submitter) error {
	err := apperr.Check(form)
	if err == nil {
		return nil
	}

	meta := map[string]any{"form": purpose}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve.Fields))
		for f := range ve.Fields {
			fields = append(fields, f)
		}
		meta["fields"] = fields
	}
	s.security(ctx, model.EventLevelInfo, "Submission rejected by validation", sub, meta)
	return err
}

func (s *Service) security(ctx context.Context, level, message string, sub Submitter, meta map[string]any) {
	if s.events == nil {
		return
	}
	if sub.IsBot() {
		meta["bot"] = true
	}
	_ = s.events.LogSecurityEvent(ctx, level, message, sub.IP, meta)
}

func (s *Service) adminRequest(template, reference string, vars map[string]any) notify.Request {
	r := notify.Request{Template: template, Reference: reference, Vars: vars}
	if s.outbox != nil {
		r.Recipient = s.outbox.AdminEmail()
	}
	return r
}

// prepare renders the outbox rows before the transaction opens. Rendering
// problems cost the email, never the submission.
func (s *Service) prepare(ctx context.Context, purpose string, reqs ...notify.Request) []store.CreateNotificationParams {
	if s.outbox == nil {
		return nil
	}
	rows, err := s.outbox.Prepare(ctx, reqs...)
	if err != nil {
		s.logger.Error("preparing notifications failed", "category", model.EventCategoryMail, "form", purpose, "error", err)
		return nil
	}
	return rows
}

// persist runs write and inserts rows in one transaction. It returns the
// ids of the queued notifications.
func (s *Service) persist(ctx context.Context, rows []store.CreateNotificationParams, write func(q *store.Queries) error) ([]string, error) {
	var ids []string
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		if err := write(q); err != nil {
			return err
		}
		var err error
		ids, err = notify.Insert(ctx, q, rows)
		return err
	})
	return ids, err
}

func (s *Service) accepted(ctx context.Context, purpose, id string, sub Submitter, notifications []string) {
	if s.notifier != nil && len(notifications) > 0 {
		s.notifier.Notify(notifications...)
	}
	if s.events != nil {
		_ = s.events.LogSubmissionEvent(ctx, "Submission accepted", sub.IP, map[string]any{
			"form": purpose,
			"id":   id,
		})
	}
}
