// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/olegiv/voyage-cms/internal/cloud"
	"github.com/olegiv/voyage-cms/internal/util"
)

// S3Config configures S3Storage.
type S3Config struct {
	AWS    cloud.AWSConfig
	Bucket string
	// PublicURL is the base URL objects are reachable under, e.g. a CDN.
	// Defaults to the virtual-hosted bucket URL.
	PublicURL string
	// Endpoint overrides the S3 endpoint for compatible stores such as MinIO.
	Endpoint string
}

// objectAPI is the subset of the S3 client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores objects in a bucket.
type S3Storage struct {
	client    objectAPI
	bucket    string
	publicURL string
}

// NewS3Storage loads the AWS configuration and creates an S3 client.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: S3 bucket is empty", ErrNotConfigured)
	}
	awsCfg, err := cloud.LoadAWS(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, awsCfg.Region)
	}
	return newS3Storage(client, cfg.Bucket, publicURL), nil
}

func newS3Storage(client objectAPI, bucket, publicURL string) *S3Storage {
	return &S3Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Put uploads data with a long-lived cache header. Keys are unique per
// upload so objects never change in place.
func (s *S3Storage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	cleaned, err := util.CleanKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(cleaned),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", cleaned, err)
	}
	return s.publicURL + "/" + cleaned, nil
}

// Delete removes key from the bucket. S3 reports success for missing keys.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	cleaned, err := util.CleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", cleaned, err)
	}
	return nil
}
