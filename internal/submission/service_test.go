// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/mail"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/notify"
	"github.com/olegiv/voyage-cms/internal/ratelimit"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/testutil"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNotifier) Notify(ids ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, ids...)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis: connection refused")
}

type fixture struct {
	db       *sql.DB
	svc      *Service
	notifier *recordingNotifier
	events   *service.EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	limits, err := ratelimit.NewSet(ratelimit.BackendMemory, nil, "", logger)
	require.NoError(t, err)
	renderer, err := mail.NewRenderer(nil, "Voyage", logger)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		notifier: &recordingNotifier{},
		events:   service.NewEventService(db),
	}
	f.svc = NewService(db, Options{
		Limits:   limits,
		Outbox:   notify.NewOutbox(renderer, "ops@example.com"),
		Notifier: f.notifier,
		Events:   f.events,
		Logger:   logger,
	})
	return f
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (f *fixture) securityEvents(t *testing.T) []store.Event {
	t.Helper()
	events, err := f.events.ListEvents(context.Background(), model.EventCategorySecurity, 100, 0)
	require.NoError(t, err)
	return events
}

func visitor(ip string) Submitter {
	return Submitter{
		IP:        ip,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

func validContact() ContactForm {
	return ContactForm{
		Name:    "Ana Lopes",
		Email:   "Ana@Example.com ",
		Phone:   "+351 912 345 678",
		Subject: "Douro in May",
		Message: "Is the river cruise available for six people?",
	}
}

func TestContact_ValidPersistsOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.svc.Contact(ctx, validContact(), visitor("203.0.113.7"))
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, ContactMessage, receipt.Message)
	require.NotEmpty(t, receipt.ID)

	assert.Equal(t, 1, f.count(t, "contact_inquiries"))
	inquiry, err := store.New(f.db).GetContactInquiry(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", inquiry.Email)
	assert.Equal(t, model.InquiryNew, inquiry.Status)
	assert.Equal(t, "203.0.113.7", inquiry.IpAddress)
	assert.Contains(t, inquiry.Client, "Chrome")
	assert.Contains(t, inquiry.Client, "(desktop)")

	pending, err := store.New(f.db).CountNotifications(ctx, model.NotificationPending)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending, "admin notification and confirmation")
	assert.Equal(t, 2, f.notifier.count())
}

func TestContact_SanitizesBeforeStoring(t *testing.T) {
	f := newFixture(t)
	form := validContact()
	form.Name = "  <b>Ana</b>  "

	receipt, err := f.svc.Contact(context.Background(), form, visitor("203.0.113.7"))
	require.NoError(t, err)

	inquiry, err := store.New(f.db).GetContactInquiry(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;Ana&lt;&#x2F;b&gt;", inquiry.Name)
}

func TestContact_HoneypotPersistsNothing(t *testing.T) {
	f := newFixture(t)
	form := validContact()
	form.Website = "http://spam.example"

	receipt, err := f.svc.Contact(context.Background(), form, visitor("203.0.113.7"))
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, ContactMessage, receipt.Message)
	assert.NotEmpty(t, receipt.ID)

	assert.Equal(t, 0, f.count(t, "contact_inquiries"))
	assert.Equal(t, 0, f.count(t, "notifications"))
	assert.Equal(t, 0, f.notifier.count())

	events := f.securityEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, "Honeypot triggered", events[0].Message)
	assert.Equal(t, model.EventLevelInfo, events[0].Level)
}

func TestContact_InvalidReportsEveryField(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Contact(context.Background(), ContactForm{
		Name:    "A",
		Email:   "bad",
		Subject: "hi",
		Message: "short",
	}, visitor("203.0.113.7"))

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"name", "email", "subject", "message"} {
		assert.Contains(t, ve.Fields, field)
	}
	assert.NotContains(t, ve.Fields, "phone")
	assert.Equal(t, 0, f.count(t, "contact_inquiries"))

	events := f.securityEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, "Submission rejected by validation", events[0].Message)
}

func TestContact_RateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < ratelimit.ContactPolicy.Limit; i++ {
		_, err := f.svc.Contact(ctx, validContact(), visitor("203.0.113.7"))
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := f.svc.Contact(ctx, validContact(), visitor("203.0.113.7"))
	var rle *apperr.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, ratelimit.ContactPolicy.Limit, rle.Limit)
	assert.Positive(t, rle.RetryAfterSeconds())
	assert.Equal(t, ratelimit.ContactPolicy.Limit, f.count(t, "contact_inquiries"))

	_, err = f.svc.Contact(ctx, validContact(), visitor("198.51.100.2"))
	assert.NoError(t, err, "a different client has its own window")

	var warned bool
	for _, e := range f.securityEvents(t) {
		if e.Message == "Rate limit exceeded" && e.IpAddress == "203.0.113.7" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestMalformed_CountsAgainstWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	decodeErr := apperr.FieldError("body", "malformed JSON")

	for i := 0; i < ratelimit.ContactPolicy.Limit; i++ {
		err := f.svc.Malformed(ctx, PurposeContact, decodeErr, visitor("203.0.113.44"))
		require.Same(t, decodeErr, err, "request %d", i+1)
	}

	err := f.svc.Malformed(ctx, PurposeContact, decodeErr, visitor("203.0.113.44"))
	assert.Equal(t, 429, apperr.Status(err))

	_, err = f.svc.Contact(ctx, validContact(), visitor("203.0.113.44"))
	assert.Equal(t, 429, apperr.Status(err), "a well-formed form shares the window")
	assert.Zero(t, f.count(t, "contact_inquiries"))

	var rejected int
	for _, e := range f.securityEvents(t) {
		if e.Message == "Submission rejected by validation" && e.IpAddress == "203.0.113.44" {
			rejected++
		}
	}
	assert.Equal(t, ratelimit.ContactPolicy.Limit, rejected)
}

func TestMalformed_CustomPackageRequiresIdentity(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Malformed(context.Background(), PurposeCustomPackage, apperr.FieldError("body", "malformed JSON"), visitor("203.0.113.45"))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestContact_RateLimitRunsBeforeHoneypot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bot := validContact()
	bot.Website = "filled"

	for i := 0; i < ratelimit.ContactPolicy.Limit; i++ {
		_, err := f.svc.Contact(ctx, bot, visitor("203.0.113.9"))
		require.NoError(t, err)
	}
	_, err := f.svc.Contact(ctx, bot, visitor("203.0.113.9"))
	assert.Equal(t, 429, apperr.Status(err))
}

func TestContact_LimiterErrorAdmits(t *testing.T) {
	f := newFixture(t)
	f.svc.limits = &ratelimit.Set{Contact: failingLimiter{}}

	_, err := f.svc.Contact(context.Background(), validContact(), visitor("203.0.113.7"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(t, "contact_inquiries"))
}

func TestSubscribe_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := store.New(f.db)

	first, err := f.svc.Subscribe(ctx, NewsletterForm{Email: "a@b.com"}, visitor("203.0.113.7"))
	require.NoError(t, err)
	second, err := f.svc.Subscribe(ctx, NewsletterForm{Email: "A@B.com"}, visitor("203.0.113.7"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.count(t, "newsletter_subscriptions"))
	sub, err := q.GetNewsletterSubscriptionByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	assert.Equal(t, "website", sub.Source)
	assert.Equal(t, 1, f.count(t, "notifications"), "no second welcome for an active address")

	_, err = f.svc.Unsubscribe(ctx, UnsubscribeForm{Email: "a@b.com"}, visitor("203.0.113.7"))
	require.NoError(t, err)
	sub, _ = q.GetNewsletterSubscriptionByEmail(ctx, "a@b.com")
	assert.Equal(t, model.SubscriptionUnsubscribed, sub.Status)
	assert.True(t, sub.UnsubscribedAt.Valid)

	_, err = f.svc.Subscribe(ctx, NewsletterForm{Email: "a@b.com", Name: "Ana"}, visitor("203.0.113.7"))
	require.NoError(t, err)
	sub, _ = q.GetNewsletterSubscriptionByEmail(ctx, "a@b.com")
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	assert.False(t, sub.UnsubscribedAt.Valid)
	assert.Equal(t, "Ana", sub.Name)
	assert.Equal(t, 1, f.count(t, "newsletter_subscriptions"))
	assert.Equal(t, 2, f.count(t, "notifications"), "reactivation sends a welcome")
}

func TestSubscribe_RateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < ratelimit.NewsletterPolicy.Limit; i++ {
		_, err := f.svc.Subscribe(ctx, NewsletterForm{Email: fmt.Sprintf("n%d@example.com", i)}, visitor("203.0.113.7"))
		require.NoError(t, err)
	}
	_, err := f.svc.Subscribe(ctx, NewsletterForm{Email: "late@example.com"}, visitor("203.0.113.7"))
	assert.Equal(t, 429, apperr.Status(err))
	assert.Equal(t, ratelimit.NewsletterPolicy.Limit, f.count(t, "newsletter_subscriptions"))
}

func TestUnsubscribe_UnknownAddressStillSucceeds(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.svc.Unsubscribe(context.Background(), UnsubscribeForm{Email: "nobody@example.com"}, visitor("203.0.113.7"))
	require.NoError(t, err)
	assert.True(t, receipt.Success)

	_, err = f.svc.Unsubscribe(context.Background(), UnsubscribeForm{Email: "nope"}, visitor("203.0.113.7"))
	assert.Equal(t, 400, apperr.Status(err))
}

func validCustomPackage() CustomPackageForm {
	return CustomPackageForm{
		Name:         "Ana Lopes",
		Email:        "ana@example.com",
		Destinations: []string{"Lisbon", " Porto ", ""},
		StartDate:    "2027-05-01",
		EndDate:      "2027-05-10",
		Travellers:   2,
		Budget:       "5000 EUR",
	}
}

func TestCustomPackage_RequiresIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CustomPackage(context.Background(), validCustomPackage(), visitor("203.0.113.7"))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 0, f.count(t, "custom_package_requests"))
}

func TestCustomPackage_Valid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := testutil.CreateUser(t, f.db, "ana@example.com", model.RoleCustomer, "correct horse battery")
	editor := testutil.CreateUser(t, f.db, "ed@example.com", model.RoleEditor, "correct horse battery")

	sub := visitor("203.0.113.7")
	sub.Identity = customer
	receipt, err := f.svc.CustomPackage(ctx, validCustomPackage(), sub)
	require.NoError(t, err)

	req, err := f.svc.GetCustomPackage(ctx, receipt.ID, editor)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lisbon", "Porto"}, req.Destinations)
	assert.Equal(t, customer.ID, req.UserID)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, 2, f.notifier.count())
}

func TestCustomPackage_Validation(t *testing.T) {
	f := newFixture(t)
	sub := visitor("203.0.113.7")
	sub.Identity = testutil.CreateUser(t, f.db, "ana@example.com", model.RoleCustomer, "correct horse battery")

	form := validCustomPackage()
	form.EndDate = "2027-04-30"
	form.Travellers = 51
	form.Destinations = nil

	_, err := f.svc.CustomPackage(context.Background(), form, sub)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "end_date")
	assert.Contains(t, ve.Fields, "travellers")
	assert.Contains(t, ve.Fields, "destinations")
	assert.NotContains(t, ve.Fields, "start_date")

	form = validCustomPackage()
	form.StartDate = "01/05/2027"
	_, err = f.svc.CustomPackage(context.Background(), form, sub)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "start_date")
}

func TestCustomPackage_LimitIsPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := visitor("203.0.113.7")
	alice.Identity = testutil.CreateUser(t, f.db, "alice@example.com", model.RoleCustomer, "correct horse battery")
	bob := visitor("203.0.113.7")
	bob.Identity = testutil.CreateUser(t, f.db, "bob@example.com", model.RoleCustomer, "correct horse battery")

	for i := 0; i < ratelimit.CustomPackagePolicy.Limit; i++ {
		_, err := f.svc.CustomPackage(ctx, validCustomPackage(), alice)
		require.NoError(t, err)
	}
	_, err := f.svc.CustomPackage(ctx, validCustomPackage(), alice)
	assert.Equal(t, 429, apperr.Status(err))

	_, err = f.svc.CustomPackage(ctx, validCustomPackage(), bob)
	assert.NoError(t, err, "same address, different user")
}

func createPackage(t *testing.T, db *sql.DB, slug, status string) store.Package {
	t.Helper()
	now := time.Now().UTC()
	p, err := store.New(db).CreatePackage(context.Background(), store.CreatePackageParams{
		Slug:         slug,
		Title:        "Douro Valley",
		DurationDays: 5,
		PriceCents:   129900,
		Currency:     "EUR",
		Status:       status,
		PublishedAt:  sql.NullTime{Time: now, Valid: status == model.StatusPublished},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return p
}

func validBooking(slug string) BookingForm {
	return BookingForm{
		Package:    slug,
		Name:       "Ana Lopes",
		Email:      "ana@example.com",
		Phone:      "+351 912 345 678",
		TravelDate: "2027-06-01",
		Travellers: 2,
	}
}

func TestBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pkg := createPackage(t, f.db, "douro-valley", model.StatusPublished)
	createPackage(t, f.db, "secret-trip", model.StatusDraft)

	receipt, err := f.svc.Book(ctx, validBooking("douro-valley"), visitor("203.0.113.7"))
	require.NoError(t, err)

	booking, err := store.New(f.db).GetBooking(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.ID, booking.PackageID)
	assert.Equal(t, model.BookingPending, booking.Status)
	assert.False(t, booking.UserID.Valid)

	_, err = f.svc.Book(ctx, validBooking("secret-trip"), visitor("203.0.113.7"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Book(ctx, validBooking("nowhere"), visitor("203.0.113.7"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, f.count(t, "bookings"))
}

func TestBook_ValidationBeforeLookup(t *testing.T) {
	f := newFixture(t)
	form := validBooking("nowhere")
	form.Phone = ""
	form.Travellers = 0

	_, err := f.svc.Book(context.Background(), form, visitor("203.0.113.7"))
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "phone")
	assert.Contains(t, ve.Fields, "travellers")
}

func TestAdmin_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := testutil.CreateUser(t, f.db, "c@example.com", model.RoleCustomer, "correct horse battery")

	_, _, err := f.svc.ListContacts(ctx, ListQuery{Limit: 10}, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, _, err = f.svc.ListBookings(ctx, ListQuery{Limit: 10}, customer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAdmin_ContactWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	editor := testutil.CreateUser(t, f.db, "ed@example.com", model.RoleEditor, "correct horse battery")

	receipt, err := f.svc.Contact(ctx, validContact(), visitor("203.0.113.7"))
	require.NoError(t, err)

	items, total, err := f.svc.ListContacts(ctx, ListQuery{Status: model.InquiryNew, Limit: 10}, editor)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	_, err = f.svc.SetContactStatus(ctx, receipt.ID, "DONE", editor)
	assert.Equal(t, 400, apperr.Status(err))

	updated, err := f.svc.SetContactStatus(ctx, receipt.ID, model.InquiryResolved, editor)
	require.NoError(t, err)
	assert.Equal(t, model.InquiryResolved, updated.Status)

	_, err = f.svc.SetContactStatus(ctx, "missing", model.InquiryResolved, editor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.svc.DeleteContact(ctx, receipt.ID, editor))
	assert.ErrorIs(t, f.svc.DeleteContact(ctx, receipt.ID, editor), apperr.ErrNotFound)

	entries, total, err := service.NewAuditService(f.db).List(ctx, model.EntityContactInquiry, receipt.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, model.AuditDelete, entries[0].Action)
}

func TestAdmin_BookingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "root@example.com", model.RoleAdmin, "correct horse battery")
	createPackage(t, f.db, "douro-valley", model.StatusPublished)

	receipt, err := f.svc.Book(ctx, validBooking("douro-valley"), visitor("203.0.113.7"))
	require.NoError(t, err)

	b, err := f.svc.SetBookingStatus(ctx, receipt.ID, model.BookingConfirmed, admin)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, b.Status)

	got, err := f.svc.GetBooking(ctx, receipt.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
}
