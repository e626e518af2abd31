// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "images/2026/10/a.jpg", want: "images/2026/10/a.jpg"},
		{in: "images//a.jpg", want: "images/a.jpg"},
		{in: "images/./a.jpg", want: "images/a.jpg"},
		{in: "", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "../a.jpg", wantErr: true},
		{in: "images/../../a.jpg", wantErr: true},
		{in: `images\..\a.jpg`, wantErr: true},
		{in: ".", wantErr: true},
	}

	for _, tt := range tests {
		got, err := CleanKey(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsafeKey) {
				t.Errorf("CleanKey(%q) error = %v, want ErrUnsafeKey", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("CleanKey(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinWithin(t *testing.T) {
	root := t.TempDir()

	got, err := JoinWithin(root, "images/a.jpg")
	if err != nil {
		t.Fatalf("JoinWithin: %v", err)
	}
	absRoot, _ := filepath.Abs(root)
	if want := filepath.Join(absRoot, "images", "a.jpg"); got != want {
		t.Errorf("JoinWithin = %q, want %q", got, want)
	}

	if _, err := JoinWithin(root, "../outside.jpg"); !errors.Is(err, ErrUnsafeKey) {
		t.Errorf("traversal error = %v, want ErrUnsafeKey", err)
	}
}
