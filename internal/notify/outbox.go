// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify implements the notification outbox. Submissions insert
// rendered emails in the same transaction as the submission row; the
// dispatcher delivers them afterwards and retries failures.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/voyage-cms/internal/mail"
	"github.com/olegiv/voyage-cms/internal/store"
)

// Request describes one notification to render.
type Request struct {
	// Template is a mail template key; it is also stored as the kind.
	Template  string
	Recipient string
	Reference string
	Vars      map[string]any
}

// Outbox renders notification requests into outbox rows.
type Outbox struct {
	renderer   *mail.Renderer
	adminEmail string
}

// NewOutbox creates an outbox. adminEmail receives the staff notifications.
func NewOutbox(renderer *mail.Renderer, adminEmail string) *Outbox {
	return &Outbox{renderer: renderer, adminEmail: adminEmail}
}

// AdminEmail returns the staff recipient.
func (o *Outbox) AdminEmail() string {
	return o.adminEmail
}

// Prepare renders every request. Rendering happens before the submission
// transaction opens so the transaction only performs inserts.
func (o *Outbox) Prepare(ctx context.Context, reqs ...Request) ([]store.CreateNotificationParams, error) {
	now := time.Now().UTC()
	rows := make([]store.CreateNotificationParams, 0, len(reqs))
	for _, req := range reqs {
		if req.Recipient == "" {
			continue
		}
		out, err := o.renderer.Render(ctx, req.Template, req.Vars)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", req.Template, err)
		}
		rows = append(rows, store.CreateNotificationParams{
			ID:        uuid.NewString(),
			Kind:      req.Template,
			Reference: req.Reference,
			Recipient: req.Recipient,
			Subject:   out.Subject,
			HtmlBody:  out.HTML,
			TextBody:  out.Text,
			CreatedAt: now,
		})
	}
	return rows, nil
}

// Insert writes prepared rows through q, which is normally bound to the
// submission's transaction. It returns the ids of the inserted rows.
func Insert(ctx context.Context, q *store.Queries, rows []store.CreateNotificationParams) ([]string, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		n, err := q.CreateNotification(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("queueing %s notification: %w", row.Kind, err)
		}
		ids = append(ids, n.ID)
	}
	return ids, nil
}
