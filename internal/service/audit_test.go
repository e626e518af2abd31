// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/testutil"
)

func TestRecordAudit(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	editor := testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor, "correct horse battery")
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.RunInTx(ctx, db, func(q *store.Queries) error {
		if err := RecordAudit(ctx, q, model.AuditCreate, model.EntityDestination, "1", editor, now, map[string]any{"slug": "lisbon"}); err != nil {
			return err
		}
		return RecordAudit(ctx, q, model.AuditDelete, model.EntityPackage, "7", editor, now.Add(time.Second), nil)
	})
	if err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}

	svc := NewAuditService(db)
	entries, total, err := svc.List(ctx, "", "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("total = %d, entries = %d, want 2", total, len(entries))
	}
	if entries[0].Action != model.AuditDelete {
		t.Errorf("newest entry action = %q, want DELETE", entries[0].Action)
	}
	if entries[0].Changes != "{}" {
		t.Errorf("empty changes = %q, want {}", entries[0].Changes)
	}
	if entries[1].Changes != `{"slug":"lisbon"}` {
		t.Errorf("changes = %q", entries[1].Changes)
	}
	if entries[1].ActorName != "Test editor" || !entries[1].ActorID.Valid {
		t.Errorf("actor = %q (%v)", entries[1].ActorName, entries[1].ActorID)
	}

	entries, total, err = svc.List(ctx, model.EntityDestination, "", 10, 0)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if total != 1 || len(entries) != 1 || entries[0].EntityID != "1" {
		t.Errorf("filtered = %d/%d %+v", len(entries), total, entries)
	}
}
