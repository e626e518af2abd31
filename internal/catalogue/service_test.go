// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalogue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/cache"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/testutil"
)

type recordingRebuilder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingRebuilder) Trigger(reason string, _ ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recordingRebuilder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

type fixture struct {
	svc     *Service
	queries *store.Queries
	rebuild *recordingRebuilder
	editor  *auth.Identity
	audit   *service.AuditService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	rb := &recordingRebuilder{}
	return fixture{
		svc: NewService(db, Options{
			Cache:    c,
			Rebuild:  rb,
			Events:   service.NewEventService(db),
			Logger:   testutil.TestLoggerSilent(),
			CacheTTL: time.Minute,
		}),
		queries: store.New(db),
		rebuild: rb,
		editor:  testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor, "editor-password"),
		audit:   service.NewAuditService(db),
	}
}

func lisbon() DestinationInput {
	return DestinationInput{
		Name:                "Lisbon",
		Region:              "Europe",
		Summary:             "Seven hills by the Tagus",
		DescriptionMarkdown: "Trams, **tiles** and pastries.",
		HeroImageURL:        "/uploads/images/abc/lisbon.jpg",
		Status:              model.StatusPublished,
	}
}

func TestCreateDestination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDestination(ctx, lisbon(), f.editor)
	require.NoError(t, err)
	assert.Equal(t, "lisbon", d.Slug)
	require.NotNil(t, d.PublishedAt)
	assert.Equal(t, 1, f.rebuild.count())

	got, err := f.svc.PublishedDestination(ctx, "lisbon")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Contains(t, got.DescriptionHTML, "<strong>tiles</strong>")

	entries, _, err := f.audit.List(ctx, model.EntityDestination, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditCreate, entries[0].Action)
}

func TestCreateDestination_SlugConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateDestination(ctx, lisbon(), f.editor)
	require.NoError(t, err)

	_, err = f.svc.CreateDestination(ctx, lisbon(), f.editor)
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "slug", conflict.Field)
	assert.Equal(t, 409, apperr.Status(err))
}

func TestCreateDestination_Validation(t *testing.T) {
	f := newFixture(t)

	in := lisbon()
	in.Name = "L"
	in.Slug = "Not A Slug"
	in.Status = "LIVE"
	in.HeroImageURL = "not a url"
	_, err := f.svc.CreateDestination(context.Background(), in, f.editor)

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"name", "slug", "status", "hero_image_url"} {
		assert.Contains(t, ve.Fields, field)
	}
}

func TestCatalogue_RejectsUnsafeImageURLs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, link := range []string{"javascript:alert(1)", "data:image/svg+xml;base64,PHN2Zz4=", "mailto:a@b.com", "//evil.example.net/x.jpg"} {
		in := lisbon()
		in.HeroImageURL = link
		_, err := f.svc.CreateDestination(ctx, in, f.editor)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve, link)
		assert.Contains(t, ve.Fields, "hero_image_url")

		pkg := tour(nil)
		pkg.HeroImageURL = link
		_, err = f.svc.CreatePackage(ctx, pkg, f.editor)
		require.ErrorAs(t, err, &ve, link)
		assert.Contains(t, ve.Fields, "hero_image_url")
	}

	in := lisbon()
	in.HeroImageURL = "https://media.example.com/images/lisbon.jpg"
	_, err := f.svc.CreateDestination(ctx, in, f.editor)
	require.NoError(t, err)
}

func TestCatalogue_RequiresEditor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateDestination(ctx, lisbon(), nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	customer := &auth.Identity{ID: 99, Role: model.RoleCustomer}
	_, err = f.svc.ListPackages(ctx, customer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestPublishedDestinations_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDestination(ctx, lisbon(), f.editor)
	require.NoError(t, err)

	list, err := f.svc.PublishedDestinations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	in := EditDestination(d)
	in.Status = model.StatusDraft
	_, err = f.svc.UpdateDestination(ctx, d.ID, in, f.editor)
	require.NoError(t, err)

	list, err = f.svc.PublishedDestinations(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "cached list must be dropped on update")

	_, err = f.svc.PublishedDestination(ctx, "lisbon")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateDestination_KeepsFirstPublication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDestination(ctx, lisbon(), f.editor)
	require.NoError(t, err)

	in := EditDestination(d)
	in.Summary = "Updated summary"
	updated, err := f.svc.UpdateDestination(ctx, d.ID, in, f.editor)
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedAt)
	assert.True(t, d.PublishedAt.Equal(*updated.PublishedAt))
	assert.Equal(t, "Updated summary", updated.Summary)

	_, err = f.svc.UpdateDestination(ctx, 9999, in, f.editor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func tour(destinationID *int64) PackageInput {
	return PackageInput{
		DestinationID:       destinationID,
		Title:               "Lisbon in Four Days",
		Summary:             "A long weekend",
		DescriptionMarkdown: "Day one: *Alfama*.",
		DurationDays:        4,
		PriceCents:          89000,
		Currency:            "eur",
		Status:              model.StatusPublished,
	}
}

func TestPackages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDestination(ctx, lisbon(), f.editor)
	require.NoError(t, err)

	p, err := f.svc.CreatePackage(ctx, tour(&d.ID), f.editor)
	require.NoError(t, err)
	assert.Equal(t, "lisbon-in-four-days", p.Slug)
	assert.Equal(t, "EUR", p.Currency)

	draft := tour(nil)
	draft.Title = "Porto Wine Trail"
	draft.Status = model.StatusDraft
	_, err = f.svc.CreatePackage(ctx, draft, f.editor)
	require.NoError(t, err)

	all, err := f.svc.PublishedPackages(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, p.ID, all[0].ID)

	byDest, err := f.svc.PublishedPackages(ctx, "lisbon")
	require.NoError(t, err)
	assert.Len(t, byDest, 1)

	_, err = f.svc.PublishedPackages(ctx, "atlantis")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.svc.PublishedPackage(ctx, p.Slug)
	require.NoError(t, err)
	assert.Contains(t, got.DescriptionHTML, "<em>Alfama</em>")

	cms, err := f.svc.ListPackages(ctx, f.editor)
	require.NoError(t, err)
	assert.Len(t, cms, 2)
}

func TestCreatePackage_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := tour(nil)
	in.DurationDays = 0
	in.PriceCents = -1
	in.Currency = "XXQ"
	_, err := f.svc.CreatePackage(ctx, in, f.editor)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"duration_days", "price_cents", "currency"} {
		assert.Contains(t, ve.Fields, field)
	}

	missing := int64(424242)
	_, err = f.svc.CreatePackage(ctx, tour(&missing), f.editor)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "destination_id")
}

func TestDeletePackage_WithBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePackage(ctx, tour(nil), f.editor)
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = f.queries.CreateBooking(ctx, store.CreateBookingParams{
		ID:         "b-1",
		PackageID:  p.ID,
		Name:       "Ana",
		Email:      "ana@example.com",
		Phone:      "+351 912 345 678",
		TravelDate: "2027-05-01",
		Travellers: 2,
		CreatedAt:  now,
	})
	require.NoError(t, err)

	err = f.svc.DeletePackage(ctx, p.ID, f.editor)
	assert.Equal(t, 409, apperr.Status(err))

	other, err := f.svc.CreatePackage(ctx, PackageInput{Title: "Sintra Day Trip", DurationDays: 1}, f.editor)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePackage(ctx, other.ID, f.editor))
	assert.ErrorIs(t, f.svc.DeletePackage(ctx, other.ID, f.editor), apperr.ErrNotFound)
}

func TestDeleteDestination_DetachesPackages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreateDestination(ctx, lisbon(), f.editor)
	require.NoError(t, err)
	p, err := f.svc.CreatePackage(ctx, tour(&d.ID), f.editor)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteDestination(ctx, d.ID, f.editor))

	got, err := f.svc.GetPackage(ctx, p.ID, f.editor)
	require.NoError(t, err)
	assert.Nil(t, got.DestinationID)
}
