// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage puts uploaded files on local disk or in an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Backend names accepted by New.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// ErrNotConfigured is returned by New when the selected backend is missing
// required settings.
var ErrNotConfigured = errors.New("storage backend not configured")

// Storage stores objects under slash-separated keys.
type Storage interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Local
	Dir     string
	BaseURL string

	// S3
	S3 S3Config
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "", BackendLocal:
		s, err := NewLocalStorage(cfg.Dir, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("using local storage", "dir", s.root)
		return s, nil
	case BackendS3:
		s, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		logger.Info("using S3 storage", "bucket", cfg.S3.Bucket)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
