// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/voyage-cms/internal/util"
)

func TestLocalStorage_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Put(ctx, "images/abc/photo.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/images/abc/photo.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "images", "abc", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	require.NoError(t, s.Delete(ctx, "images/abc/photo.jpg"))
	_, err = os.Stat(filepath.Join(dir, "images", "abc", "photo.jpg"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Missing keys are not an error.
	assert.NoError(t, s.Delete(ctx, "images/abc/photo.jpg"))
}

func TestLocalStorage_RejectsUnsafeKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../outside.txt", "a/../../b", `a\b`} {
		_, err := s.Put(context.Background(), key, "text/plain", []byte("x"))
		assert.ErrorIs(t, err, util.ErrUnsafeKey, "key %q", key)
	}
}

func TestLocalStorage_RequiresDir(t *testing.T) {
	_, err := NewLocalStorage("", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "ftp"}, nil)
	assert.Error(t, err)
}

func TestNew_S3RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: BackendS3}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []string
	body    []byte
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage_Put(t *testing.T) {
	fake := &fakeS3{}
	s := newS3Storage(fake, "voyage-media", "https://cdn.example.com/")

	url, err := s.Put(context.Background(), "images/x/a.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/x/a.png", url)

	require.Len(t, fake.puts, 1)
	in := fake.puts[0]
	assert.Equal(t, "voyage-media", aws.ToString(in.Bucket))
	assert.Equal(t, "images/x/a.png", aws.ToString(in.Key))
	assert.Equal(t, "image/png", aws.ToString(in.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(in.ContentLength))
	assert.Equal(t, "png", string(fake.body))
}

func TestS3Storage_DeleteAndErrors(t *testing.T) {
	fake := &fakeS3{}
	s := newS3Storage(fake, "b", "https://b.example.com")

	require.NoError(t, s.Delete(context.Background(), "images/x/a.png"))
	assert.Equal(t, []string{"images/x/a.png"}, fake.deletes)

	_, err := s.Put(context.Background(), "../escape", "image/png", nil)
	assert.ErrorIs(t, err, util.ErrUnsafeKey)

	fake.err = errors.New("access denied")
	_, err = s.Put(context.Background(), "images/y.png", "image/png", []byte("x"))
	assert.ErrorContains(t, err, "access denied")
}
