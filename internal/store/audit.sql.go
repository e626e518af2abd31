// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createAuditLog = `-- name: CreateAuditLog :exec
INSERT INTO audit_log (action, entity_type, entity_id, actor_id, actor_name, changes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreateAuditLogParams struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    sql.NullInt64
	ActorName  string
	Changes    string
	CreatedAt  time.Time
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) error {
	changes := arg.Changes
	if changes == "" {
		changes = "{}"
	}
	_, err := q.db.ExecContext(ctx, createAuditLog,
		arg.Action,
		arg.EntityType,
		arg.EntityID,
		arg.ActorID,
		arg.ActorName,
		changes,
		arg.CreatedAt,
	)
	return err
}

const listAuditLog = `-- name: ListAuditLog :many
SELECT id, action, entity_type, entity_id, actor_id, actor_name, changes, created_at
FROM audit_log
WHERE (?1 = '' OR entity_type = ?1) AND (?2 = '' OR entity_id = ?2)
ORDER BY created_at DESC, id DESC
LIMIT ?3 OFFSET ?4`

type ListAuditLogParams struct {
	EntityType string
	EntityID   string
	Limit      int64
	Offset     int64
}

func (q *Queries) ListAuditLog(ctx context.Context, arg ListAuditLogParams) ([]AuditLog, error) {
	rows, err := q.db.QueryContext(ctx, listAuditLog, arg.EntityType, arg.EntityID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []AuditLog
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.Action,
			&i.EntityType,
			&i.EntityID,
			&i.ActorID,
			&i.ActorName,
			&i.Changes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countAuditLog = `-- name: CountAuditLog :one
SELECT COUNT(*) FROM audit_log WHERE (?1 = '' OR entity_type = ?1) AND (?2 = '' OR entity_id = ?2)`

func (q *Queries) CountAuditLog(ctx context.Context, entityType, entityID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAuditLog, entityType, entityID).Scan(&count)
	return count, err
}
