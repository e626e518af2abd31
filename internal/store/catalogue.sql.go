// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// Destinations

const destinationColumns = `id, slug, name, region, summary, description_markdown, hero_image_url,
	status, published_at, position, created_at, updated_at`

func scanDestination(row interface{ Scan(...any) error }) (Destination, error) {
	var i Destination
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.Name,
		&i.Region,
		&i.Summary,
		&i.DescriptionMarkdown,
		&i.HeroImageUrl,
		&i.Status,
		&i.PublishedAt,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryDestinations(ctx context.Context, query string, args ...any) ([]Destination, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Destination
	for rows.Next() {
		i, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createDestination = `-- name: CreateDestination :one
INSERT INTO destinations (slug, name, region, summary, description_markdown, hero_image_url, status, published_at, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + destinationColumns

type CreateDestinationParams struct {
	Slug                string
	Name                string
	Region              string
	Summary             string
	DescriptionMarkdown string
	HeroImageUrl        string
	Status              string
	PublishedAt         sql.NullTime
	Position            int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (q *Queries) CreateDestination(ctx context.Context, arg CreateDestinationParams) (Destination, error) {
	row := q.db.QueryRowContext(ctx, createDestination,
		arg.Slug,
		arg.Name,
		arg.Region,
		arg.Summary,
		arg.DescriptionMarkdown,
		arg.HeroImageUrl,
		arg.Status,
		arg.PublishedAt,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanDestination(row)
}

const updateDestination = `-- name: UpdateDestination :one
UPDATE destinations
SET slug = ?, name = ?, region = ?, summary = ?, description_markdown = ?, hero_image_url = ?,
    status = ?, published_at = ?, position = ?, updated_at = ?
WHERE id = ?
RETURNING ` + destinationColumns

type UpdateDestinationParams struct {
	ID                  int64
	Slug                string
	Name                string
	Region              string
	Summary             string
	DescriptionMarkdown string
	HeroImageUrl        string
	Status              string
	PublishedAt         sql.NullTime
	Position            int64
	UpdatedAt           time.Time
}

func (q *Queries) UpdateDestination(ctx context.Context, arg UpdateDestinationParams) (Destination, error) {
	row := q.db.QueryRowContext(ctx, updateDestination,
		arg.Slug,
		arg.Name,
		arg.Region,
		arg.Summary,
		arg.DescriptionMarkdown,
		arg.HeroImageUrl,
		arg.Status,
		arg.PublishedAt,
		arg.Position,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanDestination(row)
}

const getDestination = `-- name: GetDestination :one
SELECT ` + destinationColumns + ` FROM destinations WHERE id = ?`

func (q *Queries) GetDestination(ctx context.Context, id int64) (Destination, error) {
	return scanDestination(q.db.QueryRowContext(ctx, getDestination, id))
}

const getPublishedDestinationBySlug = `-- name: GetPublishedDestinationBySlug :one
SELECT ` + destinationColumns + ` FROM destinations WHERE slug = ? AND status = 'PUBLISHED'`

func (q *Queries) GetPublishedDestinationBySlug(ctx context.Context, slug string) (Destination, error) {
	return scanDestination(q.db.QueryRowContext(ctx, getPublishedDestinationBySlug, slug))
}

const listDestinations = `-- name: ListDestinations :many
SELECT ` + destinationColumns + ` FROM destinations ORDER BY position, name`

func (q *Queries) ListDestinations(ctx context.Context) ([]Destination, error) {
	return q.queryDestinations(ctx, listDestinations)
}

const listPublishedDestinations = `-- name: ListPublishedDestinations :many
SELECT ` + destinationColumns + ` FROM destinations WHERE status = 'PUBLISHED' ORDER BY position, name`

func (q *Queries) ListPublishedDestinations(ctx context.Context) ([]Destination, error) {
	return q.queryDestinations(ctx, listPublishedDestinations)
}

const deleteDestination = `-- name: DeleteDestination :execrows
DELETE FROM destinations WHERE id = ?`

func (q *Queries) DeleteDestination(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteDestination, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Packages

const packageColumns = `id, slug, destination_id, title, summary, description_markdown, duration_days,
	price_cents, currency, hero_image_url, status, published_at, position, created_at, updated_at`

func scanPackage(row interface{ Scan(...any) error }) (Package, error) {
	var i Package
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.DestinationID,
		&i.Title,
		&i.Summary,
		&i.DescriptionMarkdown,
		&i.DurationDays,
		&i.PriceCents,
		&i.Currency,
		&i.HeroImageUrl,
		&i.Status,
		&i.PublishedAt,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryPackages(ctx context.Context, query string, args ...any) ([]Package, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Package
	for rows.Next() {
		i, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPackage = `-- name: CreatePackage :one
INSERT INTO packages (slug, destination_id, title, summary, description_markdown, duration_days, price_cents,
    currency, hero_image_url, status, published_at, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + packageColumns

type CreatePackageParams struct {
	Slug                string
	DestinationID       sql.NullInt64
	Title               string
	Summary             string
	DescriptionMarkdown string
	DurationDays        int64
	PriceCents          int64
	Currency            string
	HeroImageUrl        string
	Status              string
	PublishedAt         sql.NullTime
	Position            int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (q *Queries) CreatePackage(ctx context.Context, arg CreatePackageParams) (Package, error) {
	row := q.db.QueryRowContext(ctx, createPackage,
		arg.Slug,
		arg.DestinationID,
		arg.Title,
		arg.Summary,
		arg.DescriptionMarkdown,
		arg.DurationDays,
		arg.PriceCents,
		arg.Currency,
		arg.HeroImageUrl,
		arg.Status,
		arg.PublishedAt,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPackage(row)
}

const updatePackage = `-- name: UpdatePackage :one
UPDATE packages
SET slug = ?, destination_id = ?, title = ?, summary = ?, description_markdown = ?, duration_days = ?,
    price_cents = ?, currency = ?, hero_image_url = ?, status = ?, published_at = ?, position = ?, updated_at = ?
WHERE id = ?
RETURNING ` + packageColumns

type UpdatePackageParams struct {
	ID                  int64
	Slug                string
	DestinationID       sql.NullInt64
	Title               string
	Summary             string
	DescriptionMarkdown string
	DurationDays        int64
	PriceCents          int64
	Currency            string
	HeroImageUrl        string
	Status              string
	PublishedAt         sql.NullTime
	Position            int64
	UpdatedAt           time.Time
}

func (q *Queries) UpdatePackage(ctx context.Context, arg UpdatePackageParams) (Package, error) {
	row := q.db.QueryRowContext(ctx, updatePackage,
		arg.Slug,
		arg.DestinationID,
		arg.Title,
		arg.Summary,
		arg.DescriptionMarkdown,
		arg.DurationDays,
		arg.PriceCents,
		arg.Currency,
		arg.HeroImageUrl,
		arg.Status,
		arg.PublishedAt,
		arg.Position,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPackage(row)
}

const getPackage = `-- name: GetPackage :one
SELECT ` + packageColumns + ` FROM packages WHERE id = ?`

func (q *Queries) GetPackage(ctx context.Context, id int64) (Package, error) {
	return scanPackage(q.db.QueryRowContext(ctx, getPackage, id))
}

const getPublishedPackageBySlug = `-- name: GetPublishedPackageBySlug :one
SELECT ` + packageColumns + ` FROM packages WHERE slug = ? AND status = 'PUBLISHED'`

func (q *Queries) GetPublishedPackageBySlug(ctx context.Context, slug string) (Package, error) {
	return scanPackage(q.db.QueryRowContext(ctx, getPublishedPackageBySlug, slug))
}

const listPackages = `-- name: ListPackages :many
SELECT ` + packageColumns + ` FROM packages ORDER BY position, title`

func (q *Queries) ListPackages(ctx context.Context) ([]Package, error) {
	return q.queryPackages(ctx, listPackages)
}

const listPublishedPackages = `-- name: ListPublishedPackages :many
SELECT ` + packageColumns + ` FROM packages
WHERE status = 'PUBLISHED' AND (?1 = 0 OR destination_id = ?1)
ORDER BY position, title`

// ListPublishedPackages returns published packages, optionally restricted to a destination (0 means all).
func (q *Queries) ListPublishedPackages(ctx context.Context, destinationID int64) ([]Package, error) {
	return q.queryPackages(ctx, listPublishedPackages, destinationID)
}

const deletePackage = `-- name: DeletePackage :execrows
DELETE FROM packages WHERE id = ?`

func (q *Queries) DeletePackage(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePackage, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countBookingsForPackage = `-- name: CountBookingsForPackage :one
SELECT COUNT(*) FROM bookings WHERE package_id = ?`

func (q *Queries) CountBookingsForPackage(ctx context.Context, packageID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countBookingsForPackage, packageID).Scan(&count)
	return count, err
}

// Images

const imageColumns = `id, uuid, storage_key, url, filename, content_type, width, height, size, alt, uploaded_by, created_at`

func scanImage(row interface{ Scan(...any) error }) (Image, error) {
	var i Image
	err := row.Scan(
		&i.ID,
		&i.Uuid,
		&i.StorageKey,
		&i.Url,
		&i.Filename,
		&i.ContentType,
		&i.Width,
		&i.Height,
		&i.Size,
		&i.Alt,
		&i.UploadedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createImage = `-- name: CreateImage :one
INSERT INTO images (uuid, storage_key, url, filename, content_type, width, height, size, alt, uploaded_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + imageColumns

type CreateImageParams struct {
	Uuid        string
	StorageKey  string
	Url         string
	Filename    string
	ContentType string
	Width       int64
	Height      int64
	Size        int64
	Alt         string
	UploadedBy  sql.NullInt64
	CreatedAt   time.Time
}

func (q *Queries) CreateImage(ctx context.Context, arg CreateImageParams) (Image, error) {
	row := q.db.QueryRowContext(ctx, createImage,
		arg.Uuid,
		arg.StorageKey,
		arg.Url,
		arg.Filename,
		arg.ContentType,
		arg.Width,
		arg.Height,
		arg.Size,
		arg.Alt,
		arg.UploadedBy,
		arg.CreatedAt,
	)
	return scanImage(row)
}

const getImageByUUID = `-- name: GetImageByUUID :one
SELECT ` + imageColumns + ` FROM images WHERE uuid = ?`

func (q *Queries) GetImageByUUID(ctx context.Context, uuid string) (Image, error) {
	return scanImage(q.db.QueryRowContext(ctx, getImageByUUID, uuid))
}

const listImages = `-- name: ListImages :many
SELECT ` + imageColumns + ` FROM images ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

func (q *Queries) ListImages(ctx context.Context, limit, offset int64) ([]Image, error) {
	rows, err := q.db.QueryContext(ctx, listImages, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Image
	for rows.Next() {
		i, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countImages = `-- name: CountImages :one
SELECT COUNT(*) FROM images`

func (q *Queries) CountImages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countImages).Scan(&count)
	return count, err
}

const updateImageAlt = `-- name: UpdateImageAlt :one
UPDATE images SET alt = ? WHERE uuid = ?
RETURNING ` + imageColumns

func (q *Queries) UpdateImageAlt(ctx context.Context, uuid, alt string) (Image, error) {
	return scanImage(q.db.QueryRowContext(ctx, updateImageAlt, alt, uuid))
}

const deleteImage = `-- name: DeleteImage :exec
DELETE FROM images WHERE uuid = ?`

func (q *Queries) DeleteImage(ctx context.Context, uuid string) error {
	_, err := q.db.ExecContext(ctx, deleteImage, uuid)
	return err
}
