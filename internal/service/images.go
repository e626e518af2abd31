// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/olegiv/voyage-cms/internal/apperr"
	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/storage"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/util"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

// Image content types accepted for upload, with the extension used in
// storage keys.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageService stores uploaded images and keeps their metadata.
type ImageService struct {
	db      *sql.DB
	queries *store.Queries
	storage storage.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// NewImageService creates a new ImageService.
func NewImageService(db *sql.DB, st storage.Storage, logger *slog.Logger) *ImageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageService{
		db:      db,
		queries: store.New(db),
		storage: st,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RequireEditor returns ErrUnauthorized for anonymous callers and
// ErrForbidden for identities without CMS access.
func RequireEditor(actor *auth.Identity) error {
	if actor == nil {
		return apperr.ErrUnauthorized
	}
	if !actor.CanEditContent() {
		return apperr.ErrForbidden
	}
	return nil
}

// Upload validates data as an image, stores it, and records it.
// The content type is sniffed from the bytes; the client's claim is ignored.
func (s *ImageService) Upload(ctx context.Context, filename string, data []byte, alt string, actor *auth.Identity) (store.Image, error) {
	if err := RequireEditor(actor); err != nil {
		return store.Image{}, err
	}
	if len(data) == 0 {
		return store.Image{}, apperr.FieldError("file", "cannot be empty")
	}
	if len(data) > MaxImageSize {
		return store.Image{}, apperr.FieldError("file", fmt.Sprintf("must not exceed %d MB", MaxImageSize>>20))
	}

	contentType := detectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return store.Image{}, apperr.FieldError("file", "must be a JPEG, PNG, GIF or WebP image")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return store.Image{}, apperr.FieldError("file", "is not a readable image")
	}

	id := uuid.New().String()
	name := storedName(filename, ext)
	key := "images/" + id + "/" + name

	url, err := s.storage.Put(ctx, key, contentType, data)
	if err != nil {
		return store.Image{}, fmt.Errorf("storing image: %w", err)
	}

	var img store.Image
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		img, err = q.CreateImage(ctx, store.CreateImageParams{
			Uuid:        id,
			StorageKey:  key,
			Url:         url,
			Filename:    name,
			ContentType: contentType,
			Width:       int64(cfg.Width),
			Height:      int64(cfg.Height),
			Size:        int64(len(data)),
			Alt:         strings.TrimSpace(alt),
			UploadedBy:  store.NullID(actor.IDPtr()),
			CreatedAt:   s.now(),
		})
		if err != nil {
			return fmt.Errorf("creating image record: %w", err)
		}
		return RecordAudit(ctx, q, model.AuditCreate, model.EntityImage, id, actor, s.now(), map[string]any{
			"filename": name,
			"size":     len(data),
		})
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return store.Image{}, err
	}
	return img, nil
}

// List returns a page of images, newest first, and the total count.
func (s *ImageService) List(ctx context.Context, limit, offset int64, actor *auth.Identity) ([]store.Image, int64, error) {
	if err := RequireEditor(actor); err != nil {
		return nil, 0, err
	}
	items, err := s.queries.ListImages(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing images: %w", err)
	}
	total, err := s.queries.CountImages(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting images: %w", err)
	}
	return items, total, nil
}

// SetAlt replaces an image's alt text.
func (s *ImageService) SetAlt(ctx context.Context, id, alt string, actor *auth.Identity) (store.Image, error) {
	if err := RequireEditor(actor); err != nil {
		return store.Image{}, err
	}
	alt = strings.TrimSpace(alt)
	if len([]rune(alt)) > 300 {
		return store.Image{}, apperr.FieldError("alt", "the length must be no more than 300")
	}

	var img store.Image
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		img, err = q.UpdateImageAlt(ctx, id, alt)
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		return RecordAudit(ctx, q, model.AuditUpdate, model.EntityImage, id, actor, s.now(), map[string]any{"alt": alt})
	})
	return img, err
}

// Delete removes the image record, then its stored object. A failure to
// remove the object is logged; the record is already gone.
func (s *ImageService) Delete(ctx context.Context, id string, actor *auth.Identity) error {
	if err := RequireEditor(actor); err != nil {
		return err
	}

	var img store.Image
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		img, err = q.GetImageByUUID(ctx, id)
		if store.IsNotFound(err) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := q.DeleteImage(ctx, id); err != nil {
			return err
		}
		return RecordAudit(ctx, q, model.AuditDelete, model.EntityImage, id, actor, s.now(), map[string]any{"filename": img.Filename})
	})
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, img.StorageKey); err != nil {
		s.logger.Warn("failed to delete stored image", "key", img.StorageKey, "error", err)
	}
	return nil
}

func detectContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i != -1 {
		ct = ct[:i]
	}
	return ct
}

// storedName turns a client filename into a safe one with the extension
// matching the sniffed type.
func storedName(filename, ext string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	slug := util.Slugify(base)
	if slug == "" {
		slug = "image"
	}
	return slug + ext
}
