// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalogue

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/cache"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/section"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/store"
)

// Cache pages of the public catalogue reads.
const (
	DestinationsPage = "destinations"
	PackagesPage     = "packages"
)

// Options configures a Service.
type Options struct {
	Cache    cache.Cache
	Rebuild  section.Rebuilder
	Events   *service.EventService
	Logger   *slog.Logger
	CacheTTL time.Duration
}

// Service reads and edits the catalogue.
type Service struct {
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cache
	rebuild section.Rebuilder
	events  *service.EventService
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewService creates a catalogue service.
func NewService(db *sql.DB, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryCache(opts.CacheTTL, time.Minute)
	}
	return &Service{
		db:      db,
		queries: store.New(db),
		cache:   opts.Cache,
		rebuild: opts.Rebuild,
		events:  opts.Events,
		logger:  opts.Logger,
		ttl:     opts.CacheTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PublishedDestinations lists published destinations in display order.
func (s *Service) PublishedDestinations(ctx context.Context) ([]Destination, error) {
	return cache.Fetch(ctx, s.cache, cache.PageKey(DestinationsPage, "list"), s.ttl, func(ctx context.Context) ([]Destination, error) {
		rows, err := s.queries.ListPublishedDestinations(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing destinations: %w", err)
		}
		out := make([]Destination, 0, len(rows))
		for _, d := range rows {
			out = append(out, destinationView(d, false))
		}
		return out, nil
	})
}

// PublishedDestination returns one published destination with its
// description rendered.
func (s *Service) PublishedDestination(ctx context.Context, slug string) (Destination, error) {
	d, err := cache.Fetch(ctx, s.cache, cache.PageKey(DestinationsPage, "slug:"+slug), s.ttl, func(ctx context.Context) (*Destination, error) {
		row, err := s.queries.GetPublishedDestinationBySlug(ctx, slug)
		if store.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading destination %s: %w", slug, err)
		}
		v := destinationView(row, true)
		return &v, nil
	})
	if err != nil {
		return Destination{}, err
	}
	if d == nil {
		return Destination{}, apperr.ErrNotFound
	}
	return *d, nil
}

// PublishedPackages lists published packages, optionally restricted to the
// destination with the given slug. An unknown destination is ErrNotFound.
func (s *Service) PublishedPackages(ctx context.Context, destinationSlug string) ([]Package, error) {
	var destinationID int64
	if destinationSlug != "" {
		d, err := s.PublishedDestination(ctx, destinationSlug)
		if err != nil {
			return nil, err
		}
		destinationID = d.ID
	}

	key := cache.PageKey(PackagesPage, "list:"+strconv.FormatInt(destinationID, 10))
	return cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]Package, error) {
		rows, err := s.queries.ListPublishedPackages(ctx, destinationID)
		if err != nil {
			return nil, fmt.Errorf("listing packages: %w", err)
		}
		out := make([]Package, 0, len(rows))
		for _, p := range rows {
			out = append(out, packageView(p, false))
		}
		return out, nil
	})
}

// PublishedPackage returns one published package with its description rendered.
func (s *Service) PublishedPackage(ctx context.Context, slug string) (Package, error) {
	p, err := cache.Fetch(ctx, s.cache, cache.PageKey(PackagesPage, "slug:"+slug), s.ttl, func(ctx context.Context) (*Package, error) {
		row, err := s.queries.GetPublishedPackageBySlug(ctx, slug)
		if store.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading package %s: %w", slug, err)
		}
		v := packageView(row, true)
		return &v, nil
	})
	if err != nil {
		return Package{}, err
	}
	if p == nil {
		return Package{}, apperr.ErrNotFound
	}
	return *p, nil
}

// ListDestinations returns every destination, drafts included.
func (s *Service) ListDestinations(ctx context.Context, actor *auth.Identity) ([]Destination, error) {
	if err := service.RequireEditor(actor); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListDestinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}
	out := make([]Destination, 0, len(rows))
	for _, d := range rows {
		out = append(out, destinationView(d, false))
	}
	return out, nil
}

// GetDestination returns one destination by id.
func (s *Service) GetDestination(ctx context.Context, id int64, actor *auth.Identity) (Destination, error) {
	if err := service.RequireEditor(actor); err != nil {
		return Destination{}, err
	}
	d, err := s.queries.GetDestination(ctx, id)
	if store.IsNotFound(err) {
		return Destination{}, apperr.ErrNotFound
	}
	if err != nil {
		return Destination{}, err
	}
	return destinationView(d, false), nil
}

// CreateDestination validates and inserts a destination.
func (s *Service) CreateDestination(ctx context.Context, in DestinationInput, actor *auth.Identity) (Destination, error) {
	if err := service.RequireEditor(actor); err != nil {
		return Destination{}, err
	}
	in.normalize()
	if err := apperr.Check(in); err != nil {
		return Destination{}, err
	}

	now := s.now()
	var row store.Destination
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		row, err = q.CreateDestination(ctx, store.CreateDestinationParams{
			Slug:                in.Slug,
			Name:                in.Name,
			Region:              in.Region,
			Summary:             in.Summary,
			DescriptionMarkdown: in.DescriptionMarkdown,
			HeroImageUrl:        in.HeroImageURL,
			Status:              in.Status,
			PublishedAt:         publishedAt(in.Status, sql.NullTime{}, now),
			Position:            in.Position,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
		if err != nil {
			return slugConflict(err, in.Slug)
		}
		return service.RecordAudit(ctx, q, model.AuditCreate, model.EntityDestination, idString(row.ID), actor, now, map[string]any{
			"slug":   row.Slug,
			"status": row.Status,
		})
	})
	if err != nil {
		return Destination{}, err
	}

	s.changed(ctx, "destination created", actor, row.Status == model.StatusPublished)
	return destinationView(row, false), nil
}

// UpdateDestination replaces the editable fields of a destination.
func (s *Service) UpdateDestination(ctx context.Context, id int64, in DestinationInput, actor *auth.Identity) (Destination, error) {
	if err := service.RequireEditor(actor); err != nil {
		return Destination{}, err
	}
	in.normalize()
	if err := apperr.Check(in); err != nil {
		return Destination{}, err
	}

	now := s.now()
	var before, row store.Destination
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		before, err = q.GetDestination(ctx, id)
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		row, err = q.UpdateDestination(ctx, store.UpdateDestinationParams{
			ID:                  id,
			Slug:                in.Slug,
			Name:                in.Name,
			Region:              in.Region,
			Summary:             in.Summary,
			DescriptionMarkdown: in.DescriptionMarkdown,
			HeroImageUrl:        in.HeroImageURL,
			Status:              in.Status,
			PublishedAt:         publishedAt(in.Status, before.PublishedAt, now),
			Position:            in.Position,
			UpdatedAt:           now,
		})
		if err != nil {
			return slugConflict(err, in.Slug)
		}
		return service.RecordAudit(ctx, q, auditAction(before.Status, row.Status), model.EntityDestination, idString(id), actor, now, map[string]any{
			"slug":   row.Slug,
			"status": row.Status,
		})
	})
	if err != nil {
		return Destination{}, err
	}

	s.changed(ctx, "destination updated", actor,
		before.Status == model.StatusPublished || row.Status == model.StatusPublished)
	return destinationView(row, false), nil
}

// DeleteDestination removes a destination. Its packages are kept and lose
// their destination.
func (s *Service) DeleteDestination(ctx context.Context, id int64, actor *auth.Identity) error {
	if err := service.RequireEditor(actor); err != nil {
		return err
	}

	var before store.Destination
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		before, err = q.GetDestination(ctx, id)
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := q.DeleteDestination(ctx, id); err != nil {
			return err
		}
		return service.RecordAudit(ctx, q, model.AuditDelete, model.EntityDestination, idString(id), actor, s.now(), map[string]any{"slug": before.Slug})
	})
	if err != nil {
		return err
	}

	s.changed(ctx, "destination deleted", actor, before.Status == model.StatusPublished)
	return nil
}

// ListPackages returns every package, drafts included.
func (s *Service) ListPackages(ctx context.Context, actor *auth.Identity) ([]Package, error) {
	if err := service.RequireEditor(actor); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	out := make([]Package, 0, len(rows))
	for _, p := range rows {
		out = append(out, packageView(p, false))
	}
	return out, nil
}

// GetPackage returns one package by id.
func (s *Service) GetPackage(ctx context.Context, id int64, actor *auth.Identity) (Package, error) {
	if err := service.RequireEditor(actor); err != nil {
		return Package{}, err
	}
	p, err := s.queries.GetPackage(ctx, id)
	if store.IsNotFound(err) {
		return Package{}, apperr.ErrNotFound
	}
	if err != nil {
		return Package{}, err
	}
	return packageView(p, false), nil
}

// CreatePackage validates and inserts a package.
func (s *Service) CreatePackage(ctx context.Context, in PackageInput, actor *auth.Identity) (Package, error) {
	if err := service.RequireEditor(actor); err != nil {
		return Package{}, err
	}
	in.normalize()
	if err := apperr.Check(in); err != nil {
		return Package{}, err
	}

	now := s.now()
	var row store.Package
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		if err := destinationExists(ctx, q, in.DestinationID); err != nil {
			return err
		}
		var err error
		row, err = q.CreatePackage(ctx, store.CreatePackageParams{
			Slug:                in.Slug,
			DestinationID:       store.NullID(in.DestinationID),
			Title:               in.Title,
			Summary:             in.Summary,
			DescriptionMarkdown: in.DescriptionMarkdown,
			DurationDays:        in.DurationDays,
			PriceCents:          in.PriceCents,
			Currency:            in.Currency,
			HeroImageUrl:        in.HeroImageURL,
			Status:              in.Status,
			PublishedAt:         publishedAt(in.Status, sql.NullTime{}, now),
			Position:            in.Position,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
		if err != nil {
			return slugConflict(err, in.Slug)
		}
		return service.RecordAudit(ctx, q, model.AuditCreate, model.EntityPackage, idString(row.ID), actor, now, map[string]any{
			"slug":   row.Slug,
			"status": row.Status,
		})
	})
	if err != nil {
		return Package{}, err
	}

	s.changed(ctx, "package created", actor, row.Status == model.StatusPublished)
	return packageView(row, false), nil
}

// UpdatePackage replaces the editable fields of a package.
func (s *Service) UpdatePackage(ctx context.Context, id int64, in PackageInput, actor *auth.Identity) (Package, error) {
	if err := service.RequireEditor(actor); err != nil {
		return Package{}, err
	}
	in.normalize()
	if err := apperr.Check(in); err != nil {
		return Package{}, err
	}

	now := s.now()
	var before, row store.Package
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		before, err = q.GetPackage(ctx, id)
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := destinationExists(ctx, q, in.DestinationID); err != nil {
			return err
		}
		row, err = q.UpdatePackage(ctx, store.UpdatePackageParams{
			ID:                  id,
			Slug:                in.Slug,
			DestinationID:       store.NullID(in.DestinationID),
			Title:               in.Title,
			Summary:             in.Summary,
			DescriptionMarkdown: in.DescriptionMarkdown,
			DurationDays:        in.DurationDays,
			PriceCents:          in.PriceCents,
			Currency:            in.Currency,
			HeroImageUrl:        in.HeroImageURL,
			Status:              in.Status,
			PublishedAt:         publishedAt(in.Status, before.PublishedAt, now),
			Position:            in.Position,
			UpdatedAt:           now,
		})
		if err != nil {
			return slugConflict(err, in.Slug)
		}
		return service.RecordAudit(ctx, q, auditAction(before.Status, row.Status), model.EntityPackage, idString(id), actor, now, map[string]any{
			"slug":   row.Slug,
			"status": row.Status,
		})
	})
	if err != nil {
		return Package{}, err
	}

	s.changed(ctx, "package updated", actor,
		before.Status == model.StatusPublished || row.Status == model.StatusPublished)
	return packageView(row, false), nil
}

// DeletePackage removes a package. Packages with bookings cannot be deleted;
// unpublish them instead.
func (s *Service) DeletePackage(ctx context.Context, id int64, actor *auth.Identity) error {
	if err := service.RequireEditor(actor); err != nil {
		return err
	}

	var before store.Package
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		before, err = q.GetPackage(ctx, id)
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		n, err := q.CountBookingsForPackage(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &apperr.ConflictError{
				Field:   "id",
				Message: fmt.Sprintf("package has %d booking(s); unpublish it instead", n),
			}
		}
		if _, err := q.DeletePackage(ctx, id); err != nil {
			return err
		}
		return service.RecordAudit(ctx, q, model.AuditDelete, model.EntityPackage, idString(id), actor, s.now(), map[string]any{"slug": before.Slug})
	})
	if err != nil {
		return err
	}

	s.changed(ctx, "package deleted", actor, before.Status == model.StatusPublished)
	return nil
}

// changed drops cached catalogue reads and, when published content was
// affected, asks for a site rebuild.
func (s *Service) changed(ctx context.Context, reason string, actor *auth.Identity, public bool) {
	cache.InvalidatePages(ctx, s.cache, s.logger, DestinationsPage, PackagesPage)

	if s.events != nil {
		_ = s.events.LogContentEvent(ctx, model.EventLevelInfo, "Catalogue "+reason, actor.IDPtr(), nil)
	}
	if public && s.rebuild != nil {
		s.rebuild.Trigger(reason, DestinationsPage, PackagesPage)
	}
}

func destinationExists(ctx context.Context, q *store.Queries, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := q.GetDestination(ctx, *id)
	if store.IsNotFound(err) {
		return apperr.FieldError("destination_id", "does not exist")
	}
	return err
}

// publishedAt keeps the first publication time while an entity stays
// published and clears it when the entity returns to draft.
func publishedAt(status string, current sql.NullTime, now time.Time) sql.NullTime {
	if status != model.StatusPublished {
		return sql.NullTime{}
	}
	if current.Valid {
		return current
	}
	return sql.NullTime{Time: now, Valid: true}
}

func auditAction(before, after string) string {
	if before != model.StatusPublished && after == model.StatusPublished {
		return model.AuditPublish
	}
	return model.AuditUpdate
}

func slugConflict(err error, slug string) error {
	if store.IsUniqueViolation(err) {
		return &apperr.ConflictError{Field: "slug", Message: fmt.Sprintf("slug %q is already in use", slug)}
	}
	return err
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
