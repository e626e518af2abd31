// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/store"
)

// RecordAudit appends an audit entry through q. Callers pass the queries
// bound to the transaction that performs the mutation, so the entry and
// the change commit together.
func RecordAudit(ctx context.Context, q *store.Queries, action, entityType, entityID string, actor *auth.Identity, at time.Time, changes map[string]any) error {
	var data string
	if len(changes) > 0 {
		b, err := json.Marshal(changes)
		if err != nil {
			return err
		}
		data = string(b)
	}
	if err := q.CreateAuditLog(ctx, store.CreateAuditLogParams{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    store.NullID(actor.IDPtr()),
		ActorName:  actor.DisplayName(),
		Changes:    data,
		CreatedAt:  at,
	}); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// AuditService reads the audit log.
type AuditService struct {
	queries *store.Queries
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{queries: store.New(db)}
}

// List returns a page of audit entries, newest first, and the total count.
// Empty filters match everything.
func (s *AuditService) List(ctx context.Context, entityType, entityID string, limit, offset int64) ([]store.AuditLog, int64, error) {
	entries, err := s.queries.ListAuditLog(ctx, store.ListAuditLogParams{
		EntityType: entityType,
		EntityID:   entityID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing audit log: %w", err)
	}
	total, err := s.queries.CountAuditLog(ctx, entityType, entityID)
	if err != nil {
		return nil, 0, fmt.Errorf("counting audit log: %w", err)
	}
	return entries, total, nil
}
