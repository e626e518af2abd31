// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme-now"
	DefaultAdminName     = "Administrator"
)

// defaultSections are published on first start so the static site has
// something to render before editors touch the CMS.
var defaultSections = []struct {
	Type    string
	Content string
}{
	{
		Type:    "home_hero",
		Content: `{"title":"Journeys worth remembering","subtitle":"Small-group tours planned by people who have been there.","cta_label":"Explore packages","cta_url":"/packages"}`,
	},
	{
		Type:    "contact_info",
		Content: `{"email":"hello@example.com","phone":"+1 555 0100","address":"1 Harbour Street","hours":"Mon-Fri 9:00-18:00"}`,
	},
	{
		Type:    "footer",
		Content: `{"tagline":"Travel, thoughtfully arranged.","copyright":"Voyage Tours","links":[]}`,
	},
}

// Seed creates the default admin user and starter content.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	admin, err := seedAdmin(ctx, queries)
	if err != nil {
		return err
	}
	return seedSections(ctx, db, admin)
}

func seedAdmin(ctx context.Context, queries *Queries) (User, error) {
	existing, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return User{}, fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)
	return user, nil
}

func seedSections(ctx context.Context, db *sql.DB, admin User) error {
	actor := sql.NullInt64{Int64: admin.ID, Valid: true}

	for _, s := range defaultSections {
		err := RunInTx(ctx, db, func(q *Queries) error {
			if _, err := q.GetSectionByKey(ctx, s.Type, s.Type); err == nil {
				return nil
			} else if !errors.Is(err, sql.ErrNoRows) {
				return err
			}

			now := time.Now().UTC()
			created, err := q.CreateSection(ctx, CreateSectionParams{
				ID:        uuid.NewString(),
				Type:      s.Type,
				ItemKey:   s.Type,
				Content:   s.Content,
				ActorID:   actor,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			if _, err := q.PublishSection(ctx, PublishSectionParams{
				ID:          created.ID,
				Content:     s.Content,
				Revision:    1,
				ActorID:     actor,
				PublishedAt: now,
			}); err != nil {
				return err
			}
			return q.CreateAuditLog(ctx, CreateAuditLogParams{
				Action:     model.AuditPublish,
				EntityType: s.Type,
				EntityID:   created.ID,
				ActorID:    actor,
				ActorName:  admin.Name,
				CreatedAt:  now,
			})
		})
		if err != nil {
			return fmt.Errorf("seeding section %s: %w", s.Type, err)
		}
	}
	return nil
}
