// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsafeKey is returned for object keys that would leave the storage root.
var ErrUnsafeKey = errors.New("unsafe storage key")

// CleanKey normalizes a slash-separated object key and rejects absolute
// keys, empty keys, and keys containing "..".
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrUnsafeKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrUnsafeKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", ErrUnsafeKey
	}
	return cleaned, nil
}

// JoinWithin maps a key onto a file under root and verifies the result does
// not escape root.
func JoinWithin(root, key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(absRoot, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(full, absRoot+string(filepath.Separator)) {
		return "", ErrUnsafeKey
	}
	return full, nil
}
