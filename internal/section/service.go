// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package section

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/cache"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/sanitize"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/store"
)

// Section is one section instance as returned to readers.
type Section struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Content     map[string]any `json:"content"`
	Status      string         `json:"status"`
	PublishedAt *time.Time     `json:"published_at"`
	Position    int64          `json:"position"`
	Revision    int64          `json:"revision"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CreatedBy   *int64         `json:"created_by,omitempty"`
	UpdatedBy   *int64         `json:"updated_by,omitempty"`
}

// Revision is one entry of a versioned section's history.
type Revision struct {
	Revision  int64          `json:"revision"`
	Content   map[string]any `json:"content"`
	Published bool           `json:"published"`
	CreatedBy *int64         `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Rebuilder asks the static site to rebuild. Implementations must not block.
type Rebuilder interface {
	Trigger(reason string, sections ...string)
}

// Options configures a Service.
type Options struct {
	Cache    cache.Cache
	Rebuild  Rebuilder
	Events   *service.EventService
	Logger   *slog.Logger
	CacheTTL time.Duration
}

// Service reads and writes sections.
type Service struct {
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cache
	rebuild Rebuilder
	events  *service.EventService
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewService creates a section service.
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

// Get returns the singleton section of the named type, or nil when it does
// not exist in the requested mode. Callers without a CMS identity always
// read the public version.
func (s *Service) Get(ctx context.Context, mode model.ReadMode, name string, actor *auth.Identity) (*Section, error) {
	t, err := lookup(name, KindSingleton)
	if err != nil {
		return nil, err
	}

	if effectiveMode(mode, actor) == model.ModePublic {
		key := cache.PageKey(t.cachePages()[0], t.Name)
		return cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*Section, error) {
			row, err := s.queries.GetSectionByKey(ctx, t.Name, t.Name)
			if store.IsNotFound(err) {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("loading section %s: %w", t.Name, err)
			}
			return publicView(row)
		})
	}

	row, err := s.queries.GetSectionByKey(ctx, t.Name, t.Name)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading section %s: %w", t.Name, err)
	}
	return draftView(row)
}

// List returns the items of a list type ordered by position. Public mode
// only includes items that have published content.
func (s *Service) List(ctx context.Context, mode model.ReadMode, name string, actor *auth.Identity) ([]Section, error) {
	t, err := lookup(name, KindList)
	if err != nil {
		return nil, err
	}

	if effectiveMode(mode, actor) == model.ModePublic {
		key := cache.PageKey(t.cachePages()[0], t.Name+":items")
		return cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]Section, error) {
			rows, err := s.queries.ListPublishedSectionsByType(ctx, t.Name)
			if err != nil {
				return nil, fmt.Errorf("listing %s: %w", t.Name, err)
			}
			return views(rows, publicView)
		})
	}

	rows, err := s.queries.ListSectionsByType(ctx, t.Name)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.Name, err)
	}
	return views(rows, draftView)
}

// Save writes the singleton section of the named type, creating it on the
// first write. With publish set the saved content becomes the public
// version; otherwise only the draft changes.
func (s *Service) Save(ctx context.Context, name string, fields map[string]any, publish bool, actor *auth.Identity) (*Section, error) {
	t, err := lookup(name, KindSingleton)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, t, "", fields, publish, actor)
}

// Create appends a new item to a list type.
func (s *Service) Create(ctx context.Context, name string, fields map[string]any, publish bool, actor *auth.Identity) (*Section, error) {
	t, err := lookup(name, KindList)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, t, "", fields, publish, actor)
}

// Update overwrites an existing list item.
func (s *Service) Update(ctx context.Context, name, id string, fields map[string]any, publish bool, actor *auth.Identity) (*Section, error) {
	t, err := lookup(name, KindList)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperr.ErrNotFound
	}
	return s.write(ctx, t, id, fields, publish, actor)
}

func (s *Service) write(ctx context.Context, t Type, id string, fields map[string]any, publish bool, actor *auth.Identity) (*Section, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}

	content, err := prepare(t, fields)
	if err != nil {
		return nil, err
	}

	actorID := store.NullID(actor.IDPtr())
	now := s.now()

	var saved store.Section
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		action := model.AuditUpdate

		row, err := findForWrite(ctx, q, t, id)
		if store.IsNotFound(err) {
			if id != "" {
				return apperr.ErrNotFound
			}
			row, err = createRow(ctx, q, t, content, actorID, now)
			action = model.AuditCreate
		}
		if err != nil {
			return err
		}

		revision := row.Revision + 1
		if publish {
			saved, err = q.PublishSection(ctx, store.PublishSectionParams{
				ID:          row.ID,
				Content:     content,
				Revision:    revision,
				ActorID:     actorID,
				PublishedAt: now,
			})
			action = model.AuditPublish
		} else {
			saved, err = q.SaveSectionDraft(ctx, store.SaveSectionDraftParams{
				ID:        row.ID,
				Content:   content,
				Revision:  revision,
				ActorID:   actorID,
				UpdatedAt: now,
			})
		}
		if err != nil {
			return fmt.Errorf("saving section %s: %w", t.Name, err)
		}

		if t.Versioned {
			if err := q.CreateSectionRevision(ctx, store.CreateSectionRevisionParams{
				SectionID: saved.ID,
				Revision:  revision,
				Content:   content,
				Published: publish,
				CreatedBy: actorID,
				CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("recording revision: %w", err)
			}
		}

		return service.RecordAudit(ctx, q, action, t.Name, saved.ID, actor, now, map[string]any{
			"revision":  revision,
			"published": publish,
		})
	})
	if err != nil {
		return nil, err
	}

	if publish {
		s.publicChanged(ctx, t, "publish", saved.ID, actor)
	}
	return draftView(saved)
}

// Delete removes a list item and its revision history.
func (s *Service) Delete(ctx context.Context, name, id string, actor *auth.Identity) error {
	t, err := lookup(name, KindList)
	if err != nil {
		return err
	}
	if err := authorize(actor); err != nil {
		return err
	}

	var wasPublic bool
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		row, err := resolve(ctx, q, t, id)
		if err != nil {
			return err
		}
		wasPublic = row.PublishedContent.Valid

		if err := q.DeleteSection(ctx, row.ID); err != nil {
			return fmt.Errorf("deleting section: %w", err)
		}
		return service.RecordAudit(ctx, q, model.AuditDelete, t.Name, row.ID, actor, s.now(), nil)
	})
	if err != nil {
		return err
	}

	if wasPublic {
		s.publicChanged(ctx, t, "delete", id, actor)
	}
	return nil
}

// Reorder assigns positions to the items of a list type in the given order.
func (s *Service) Reorder(ctx context.Context, name string, ids []string, actor *auth.Identity) error {
	t, err := lookup(name, KindList)
	if err != nil {
		return err
	}
	if err := authorize(actor); err != nil {
		return err
	}
	if len(ids) == 0 {
		return apperr.FieldError("ids", "must not be empty")
	}

	now := s.now()
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		for i, id := range ids {
			n, err := q.UpdateSectionPosition(ctx, id, t.Name, int64(i), now)
			if err != nil {
				return fmt.Errorf("reordering %s: %w", t.Name, err)
			}
			if n == 0 {
				return apperr.FieldError("ids", "unknown item "+id)
			}
		}
		return service.RecordAudit(ctx, q, model.AuditUpdate, t.Name, t.Name, actor, now, map[string]any{"order": ids})
	})
	if err != nil {
		return err
	}

	s.publicChanged(ctx, t, "reorder", "", actor)
	return nil
}

// Unpublish withdraws the public version of a section. The draft is kept.
// For singleton types id is ignored.
func (s *Service) Unpublish(ctx context.Context, name, id string, actor *auth.Identity) (*Section, error) {
	t, err := lookupAny(name)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor); err != nil {
		return nil, err
	}

	var (
		saved   store.Section
		changed bool
	)
	now := s.now()
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		row, err := resolve(ctx, q, t, id)
		if err != nil {
			return err
		}
		if !row.PublishedContent.Valid {
			saved = row
			return nil
		}

		saved, err = q.UnpublishSection(ctx, row.ID, store.NullID(actor.IDPtr()), now)
		if err != nil {
			return fmt.Errorf("unpublishing section: %w", err)
		}
		changed = true
		return service.RecordAudit(ctx, q, model.AuditUpdate, t.Name, row.ID, actor, now, map[string]any{"unpublished": true})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publicChanged(ctx, t, "unpublish", saved.ID, actor)
	}
	return draftView(saved)
}

// Revisions returns the history of a versioned section, newest first.
func (s *Service) Revisions(ctx context.Context, name, id string, actor *auth.Identity) ([]Revision, error) {
	t, err := lookupVersioned(name)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor); err != nil {
		return nil, err
	}

	row, err := resolve(ctx, s.queries, t, id)
	if err != nil {
		return nil, err
	}

	revs, err := s.queries.ListSectionRevisions(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}

	out := make([]Revision, 0, len(revs))
	for _, r := range revs {
		content, err := decodeContent(r.Content)
		if err != nil {
			return nil, err
		}
		out = append(out, Revision{
			Revision:  r.Revision,
			Content:   content,
			Published: r.Published,
			CreatedBy: nullIDPtr(r.CreatedBy),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// Restore copies an earlier revision into the draft. The public version is
// not changed until the draft is published.
func (s *Service) Restore(ctx context.Context, name, id string, revision int64, actor *auth.Identity) (*Section, error) {
	t, err := lookupVersioned(name)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor); err != nil {
		return nil, err
	}

	actorID := store.NullID(actor.IDPtr())
	now := s.now()

	var saved store.Section
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		row, err := resolve(ctx, q, t, id)
		if err != nil {
			return err
		}

		rev, err := q.GetSectionRevision(ctx, row.ID, revision)
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading revision: %w", err)
		}

		// Schemas may have tightened since the revision was written.
		doc, err := decodeContent(rev.Content)
		if err != nil {
			return err
		}
		if err := Validate(t, doc); err != nil {
			return err
		}

		next := row.Revision + 1
		saved, err = q.SaveSectionDraft(ctx, store.SaveSectionDraftParams{
			ID:        row.ID,
			Content:   rev.Content,
			Revision:  next,
			ActorID:   actorID,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("restoring revision: %w", err)
		}
		if err := q.CreateSectionRevision(ctx, store.CreateSectionRevisionParams{
			SectionID: row.ID,
			Revision:  next,
			Content:   rev.Content,
			CreatedBy: actorID,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("recording revision: %w", err)
		}
		return service.RecordAudit(ctx, q, model.AuditUpdate, t.Name, row.ID, actor, now, map[string]any{
			"revision":      next,
			"restored_from": revision,
		})
	})
	if err != nil {
		return nil, err
	}
	return draftView(saved)
}

// EmailTemplate returns the published email template with the given key,
// or nil when editors have not published one.
func (s *Service) EmailTemplate(ctx context.Context, key string) (*EmailTemplate, error) {
	items, err := s.List(ctx, model.ModePublic, EmailTemplateType, nil)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if k, _ := item.Content["key"].(string); k != key {
			continue
		}
		tpl := &EmailTemplate{Key: key}
		tpl.Subject, _ = item.Content["subject"].(string)
		tpl.BodyHTML, _ = item.Content["body_html"].(string)
		tpl.BodyText, _ = item.Content["body_text"].(string)
		return tpl, nil
	}
	return nil, nil
}

// EmailTemplate is the published content of an email_template item.
type EmailTemplate struct {
	Key      string
	Subject  string
	BodyHTML string
	BodyText string
}

// publicChanged drops cached reads of every page embedding t and asks for a
// site rebuild. Neither step can fail the write that caused it.
func (s *Service) publicChanged(ctx context.Context, t Type, reason, id string, actor *auth.Identity) {
	cache.InvalidatePages(ctx, s.cache, s.logger, t.cachePages()...)

	if s.events != nil {
		_ = s.events.LogContentEvent(ctx, model.EventLevelInfo, "Section "+reason, actor.IDPtr(), map[string]any{
			"type": t.Name,
			"id":   id,
		})
	}

	if s.rebuild != nil && len(t.Pages) > 0 {
		s.rebuild.Trigger(t.Name+" "+reason, t.Name)
	}
}

func effectiveMode(mode model.ReadMode, actor *auth.Identity) model.ReadMode {
	if mode == model.ModeCMS && actor.CanEditContent() {
		return model.ModeCMS
	}
	return model.ModePublic
}

func authorize(actor *auth.Identity) error {
	if actor == nil {
		return apperr.ErrUnauthorized
	}
	if !actor.CanEditContent() {
		return apperr.ErrForbidden
	}
	return nil
}

func lookupAny(name string) (Type, error) {
	t, ok := Lookup(name)
	if !ok {
		return Type{}, apperr.ErrNotFound
	}
	return t, nil
}

func lookup(name string, kind Kind) (Type, error) {
	t, err := lookupAny(name)
	if err != nil {
		return t, err
	}
	if t.Kind != kind {
		if kind == KindList {
			return t, apperr.FieldError("section", name+" is not a list section")
		}
		return t, apperr.FieldError("section", name+" is a list section; use its items")
	}
	return t, nil
}

func lookupVersioned(name string) (Type, error) {
	t, err := lookupAny(name)
	if err != nil {
		return t, err
	}
	if !t.Versioned {
		return t, apperr.FieldError("section", name+" does not keep revisions")
	}
	return t, nil
}

// prepare sanitizes fields, validates them against the type's schema, and
// returns the JSON to store.
func prepare(t Type, fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	content := sanitize.Content(fields)
	if err := Validate(t, content); err != nil {
		return "", err
	}
	if bad := sanitize.CheckURLs(content); bad != nil {
		return "", apperr.NewValidationError(bad)
	}
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encoding content: %w", err)
	}
	return string(data), nil
}

func findForWrite(ctx context.Context, q *store.Queries, t Type, id string) (store.Section, error) {
	if !t.IsList() {
		return q.GetSectionByKey(ctx, t.Name, t.Name)
	}
	if id == "" {
		return store.Section{}, sql.ErrNoRows
	}
	row, err := q.GetSection(ctx, id)
	if err == nil && row.Type != t.Name {
		return store.Section{}, sql.ErrNoRows
	}
	return row, err
}

// resolve loads an existing instance, mapping absence to apperr.ErrNotFound.
func resolve(ctx context.Context, q *store.Queries, t Type, id string) (store.Section, error) {
	row, err := findForWrite(ctx, q, t, id)
	if store.IsNotFound(err) {
		return row, apperr.ErrNotFound
	}
	if err != nil {
		return row, fmt.Errorf("loading section %s: %w", t.Name, err)
	}
	return row, nil
}

func createRow(ctx context.Context, q *store.Queries, t Type, content string, actorID sql.NullInt64, now time.Time) (store.Section, error) {
	id := uuid.NewString()
	itemKey := t.Name
	var position int64
	if t.IsList() {
		itemKey = id
		var err error
		if position, err = q.NextSectionPosition(ctx, t.Name); err != nil {
			return store.Section{}, fmt.Errorf("allocating position: %w", err)
		}
	}

	row, err := q.CreateSection(ctx, store.CreateSectionParams{
		ID:        id,
		Type:      t.Name,
		ItemKey:   itemKey,
		Position:  position,
		Content:   content,
		ActorID:   actorID,
		CreatedAt: now,
	})
	if store.IsUniqueViolation(err) {
		return row, &apperr.ConflictError{Field: "section", Message: t.Name + " already exists"}
	}
	if err != nil {
		return row, fmt.Errorf("creating section %s: %w", t.Name, err)
	}
	return row, nil
}

func decodeContent(data string) (map[string]any, error) {
	content := map[string]any{}
	if err := json.Unmarshal([]byte(data), &content); err != nil {
		return nil, fmt.Errorf("decoding section content: %w", err)
	}
	return content, nil
}

func baseView(row store.Section) *Section {
	sec := &Section{
		ID:        row.ID,
		Type:      row.Type,
		Position:  row.Position,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		CreatedBy: nullIDPtr(row.CreatedBy),
		UpdatedBy: nullIDPtr(row.UpdatedBy),
	}
	if row.PublishedAt.Valid {
		at := row.PublishedAt.Time
		sec.PublishedAt = &at
	}
	return sec
}

// draftView shows the latest edit.
func draftView(row store.Section) (*Section, error) {
	content, err := decodeContent(row.DraftContent)
	if err != nil {
		return nil, err
	}
	sec := baseView(row)
	sec.Content = content
	sec.Status = row.Status
	sec.Revision = row.Revision
	return sec, nil
}

// publicView shows the published content with markdown rendered, or nil
// when the instance has never been published.
func publicView(row store.Section) (*Section, error) {
	if !row.PublishedContent.Valid {
		return nil, nil
	}
	content, err := decodeContent(row.PublishedContent.String)
	if err != nil {
		return nil, err
	}
	sec := baseView(row)
	sec.Content = renderContent(content)
	sec.Status = model.StatusPublished
	sec.Revision = row.PublishedRevision.Int64
	sec.UpdatedBy = nil
	sec.CreatedBy = nil
	return sec, nil
}

func views(rows []store.Section, view func(store.Section) (*Section, error)) ([]Section, error) {
	out := make([]Section, 0, len(rows))
	for _, row := range rows {
		sec, err := view(row)
		if err != nil {
			return nil, err
		}
		if sec != nil {
			out = append(out, *sec)
		}
	}
	return out, nil
}

func nullIDPtr(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}
