// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const sectionColumns = `id, type, item_key, position, status, draft_content, published_content,
	published_revision, published_at, revision, created_by, updated_by, created_at, updated_at`

func scanSection(row interface{ Scan(...any) error }) (Section, error) {
	var i Section
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.ItemKey,
		&i.Position,
		&i.Status,
		&i.DraftContent,
		&i.PublishedContent,
		&i.PublishedRevision,
		&i.PublishedAt,
		&i.Revision,
		&i.CreatedBy,
		&i.UpdatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) querySections(ctx context.Context, query string, args ...any) ([]Section, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Section
	for rows.Next() {
		i, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createSection = `-- name: CreateSection :one
INSERT INTO sections (id, type, item_key, position, status, draft_content, revision, created_by, updated_by, created_at, updated_at)
VALUES (?, ?, ?, ?, 'DRAFT', ?, 0, ?, ?, ?, ?)
RETURNING ` + sectionColumns

type CreateSectionParams struct {
	ID        string
	Type      string
	ItemKey   string
	Position  int64
	Content   string
	ActorID   sql.NullInt64
	CreatedAt time.Time
}

// CreateSection inserts an empty draft row; callers then save content into it.
func (q *Queries) CreateSection(ctx context.Context, arg CreateSectionParams) (Section, error) {
	row := q.db.QueryRowContext(ctx, createSection,
		arg.ID,
		arg.Type,
		arg.ItemKey,
		arg.Position,
		arg.Content,
		arg.ActorID,
		arg.ActorID,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanSection(row)
}

const getSection = `-- name: GetSection :one
SELECT ` + sectionColumns + ` FROM sections WHERE id = ?`

func (q *Queries) GetSection(ctx context.Context, id string) (Section, error) {
	return scanSection(q.db.QueryRowContext(ctx, getSection, id))
}

const getSectionByKey = `-- name: GetSectionByKey :one
SELECT ` + sectionColumns + ` FROM sections WHERE type = ? AND item_key = ?`

func (q *Queries) GetSectionByKey(ctx context.Context, sectionType, itemKey string) (Section, error) {
	return scanSection(q.db.QueryRowContext(ctx, getSectionByKey, sectionType, itemKey))
}

const listSectionsByType = `-- name: ListSectionsByType :many
SELECT ` + sectionColumns + ` FROM sections WHERE type = ?
ORDER BY position, created_at`

func (q *Queries) ListSectionsByType(ctx context.Context, sectionType string) ([]Section, error) {
	return q.querySections(ctx, listSectionsByType, sectionType)
}

const listPublishedSectionsByType = `-- name: ListPublishedSectionsByType :many
SELECT ` + sectionColumns + ` FROM sections WHERE type = ? AND published_content IS NOT NULL
ORDER BY position, created_at`

func (q *Queries) ListPublishedSectionsByType(ctx context.Context, sectionType string) ([]Section, error) {
	return q.querySections(ctx, listPublishedSectionsByType, sectionType)
}

const saveSectionDraft = `-- name: SaveSectionDraft :one
UPDATE sections
SET status = 'DRAFT', draft_content = ?, revision = ?, updated_by = ?, updated_at = ?
WHERE id = ?
RETURNING ` + sectionColumns

type SaveSectionDraftParams struct {
	ID        string
	Content   string
	Revision  int64
	ActorID   sql.NullInt64
	UpdatedAt time.Time
}

// SaveSectionDraft stores a new draft. Published content and published_at are left untouched.
func (q *Queries) SaveSectionDraft(ctx context.Context, arg SaveSectionDraftParams) (Section, error) {
	row := q.db.QueryRowContext(ctx, saveSectionDraft,
		arg.Content,
		arg.Revision,
		arg.ActorID,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanSection(row)
}

const publishSection = `-- name: PublishSection :one
UPDATE sections
SET status = 'PUBLISHED',
    draft_content = ?1,
    published_content = ?1,
    revision = ?2,
    published_revision = ?2,
    published_at = ?3,
    updated_by = ?4,
    updated_at = ?3
WHERE id = ?5
RETURNING ` + sectionColumns

type PublishSectionParams struct {
	ID          string
	Content     string
	Revision    int64
	ActorID     sql.NullInt64
	PublishedAt time.Time
}

// PublishSection swaps the current public pointer to the given content in one statement.
func (q *Queries) PublishSection(ctx context.Context, arg PublishSectionParams) (Section, error) {
	row := q.db.QueryRowContext(ctx, publishSection,
		arg.Content,
		arg.Revision,
		arg.PublishedAt,
		arg.ActorID,
		arg.ID,
	)
	return scanSection(row)
}

const unpublishSection = `-- name: UnpublishSection :one
UPDATE sections
SET status = 'DRAFT', published_content = NULL, published_revision = NULL, updated_by = ?, updated_at = ?
WHERE id = ?
RETURNING ` + sectionColumns

func (q *Queries) UnpublishSection(ctx context.Context, id string, actorID sql.NullInt64, at time.Time) (Section, error) {
	return scanSection(q.db.QueryRowContext(ctx, unpublishSection, actorID, at, id))
}

const updateSectionPosition = `-- name: UpdateSectionPosition :execrows
UPDATE sections SET position = ?, updated_at = ? WHERE id = ? AND type = ?`

func (q *Queries) UpdateSectionPosition(ctx context.Context, id, sectionType string, position int64, at time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateSectionPosition, position, at, id, sectionType)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const nextSectionPosition = `-- name: NextSectionPosition :one
SELECT COALESCE(MAX(position), -1) + 1 FROM sections WHERE type = ?`

func (q *Queries) NextSectionPosition(ctx context.Context, sectionType string) (int64, error) {
	var pos int64
	err := q.db.QueryRowContext(ctx, nextSectionPosition, sectionType).Scan(&pos)
	return pos, err
}

const deleteSection = `-- name: DeleteSection :exec
DELETE FROM sections WHERE id = ?`

func (q *Queries) DeleteSection(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSection, id)
	return err
}

const createSectionRevision = `-- name: CreateSectionRevision :exec
INSERT INTO section_revisions (section_id, revision, content, published, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateSectionRevisionParams struct {
	SectionID string
	Revision  int64
	Content   string
	Published bool
	CreatedBy sql.NullInt64
	CreatedAt time.Time
}

func (q *Queries) CreateSectionRevision(ctx context.Context, arg CreateSectionRevisionParams) error {
	_, err := q.db.ExecContext(ctx, createSectionRevision,
		arg.SectionID,
		arg.Revision,
		arg.Content,
		arg.Published,
		arg.CreatedBy,
		arg.CreatedAt,
	)
	return err
}

const listSectionRevisions = `-- name: ListSectionRevisions :many
SELECT id, section_id, revision, content, published, created_by, created_at
FROM section_revisions WHERE section_id = ?
ORDER BY revision DESC`

func (q *Queries) ListSectionRevisions(ctx context.Context, sectionID string) ([]SectionRevision, error) {
	rows, err := q.db.QueryContext(ctx, listSectionRevisions, sectionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []SectionRevision
	for rows.Next() {
		var i SectionRevision
		if err := rows.Scan(
			&i.ID,
			&i.SectionID,
			&i.Revision,
			&i.Content,
			&i.Published,
			&i.CreatedBy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getSectionRevision = `-- name: GetSectionRevision :one
SELECT id, section_id, revision, content, published, created_by, created_at
FROM section_revisions WHERE section_id = ? AND revision = ?`

func (q *Queries) GetSectionRevision(ctx context.Context, sectionID string, revision int64) (SectionRevision, error) {
	var i SectionRevision
	err := q.db.QueryRowContext(ctx, getSectionRevision, sectionID, revision).Scan(
		&i.ID,
		&i.SectionID,
		&i.Revision,
		&i.Content,
		&i.Published,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}
