// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const notificationColumns = `id, kind, reference, recipient, subject, html_body, text_body, status,
	attempts, last_error, next_retry_at, sent_at, created_at, updated_at`

func scanNotification(row interface{ Scan(...any) error }) (Notification, error) {
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Reference,
		&i.Recipient,
		&i.Subject,
		&i.HtmlBody,
		&i.TextBody,
		&i.Status,
		&i.Attempts,
		&i.LastError,
		&i.NextRetryAt,
		&i.SentAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryNotifications(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Notification
	for rows.Next() {
		i, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createNotification = `-- name: CreateNotification :one
INSERT INTO notifications (id, kind, reference, recipient, subject, html_body, text_body, status, attempts, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', 0, ?, ?)
RETURNING ` + notificationColumns

type CreateNotificationParams struct {
	ID        string
	Kind      string
	Reference string
	Recipient string
	Subject   string
	HtmlBody  string
	TextBody  string
	CreatedAt time.Time
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRowContext(ctx, createNotification,
		arg.ID,
		arg.Kind,
		arg.Reference,
		arg.Recipient,
		arg.Subject,
		arg.HtmlBody,
		arg.TextBody,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanNotification(row)
}

const getNotification = `-- name: GetNotification :one
SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`

func (q *Queries) GetNotification(ctx context.Context, id string) (Notification, error) {
	return scanNotification(q.db.QueryRowContext(ctx, getNotification, id))
}

const listDueNotifications = `-- name: ListDueNotifications :many
SELECT ` + notificationColumns + ` FROM notifications
WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
ORDER BY created_at
LIMIT ?`

// ListDueNotifications returns pending rows whose retry time has passed.
func (q *Queries) ListDueNotifications(ctx context.Context, now time.Time, limit int64) ([]Notification, error) {
	return q.queryNotifications(ctx, listDueNotifications, now, limit)
}

const listNotifications = `-- name: ListNotifications :many
SELECT ` + notificationColumns + ` FROM notifications
WHERE (?1 = '' OR status = ?1)
ORDER BY created_at DESC
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListNotifications(ctx context.Context, arg ListParams) ([]Notification, error) {
	return q.queryNotifications(ctx, listNotifications, arg.Status, arg.Limit, arg.Offset)
}

const countNotifications = `-- name: CountNotifications :one
SELECT COUNT(*) FROM notifications WHERE (?1 = '' OR status = ?1)`

func (q *Queries) CountNotifications(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNotifications, status).Scan(&count)
	return count, err
}

const markNotificationSent = `-- name: MarkNotificationSent :exec
UPDATE notifications
SET status = 'sent', attempts = attempts + 1, last_error = '', sent_at = ?1, next_retry_at = NULL, updated_at = ?1
WHERE id = ?2`

func (q *Queries) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, markNotificationSent, at, id)
	return err
}

const markNotificationFailed = `-- name: MarkNotificationFailed :exec
UPDATE notifications
SET status = ?, attempts = ?, last_error = ?, next_retry_at = ?, updated_at = ?
WHERE id = ?`

type MarkNotificationFailedParams struct {
	ID          string
	Status      string
	Attempts    int64
	LastError   string
	NextRetryAt sql.NullTime
	UpdatedAt   time.Time
}

// MarkNotificationFailed records a failed attempt. Status is pending when a retry is scheduled, dead otherwise.
func (q *Queries) MarkNotificationFailed(ctx context.Context, arg MarkNotificationFailedParams) error {
	_, err := q.db.ExecContext(ctx, markNotificationFailed,
		arg.Status,
		arg.Attempts,
		arg.LastError,
		arg.NextRetryAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const deleteSentNotifications = `-- name: DeleteSentNotifications :execrows
DELETE FROM notifications WHERE status = 'sent' AND sent_at < ?`

func (q *Queries) DeleteSentNotifications(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSentNotifications, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
