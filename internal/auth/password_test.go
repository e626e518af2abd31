// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"correct horse battery", true},
		{"wrong horse battery", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := CheckPassword(tt.password, hash)
		if err != nil {
			t.Fatalf("CheckPassword(%q) error: %v", tt.password, err)
		}
		if got != tt.want {
			t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestCheckPassword_OlderParameters(t *testing.T) {
	// Hash created with m=65536,t=1,p=4 for "changeme".
	old := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	ok, err := CheckPassword("changeme", old)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !ok {
		t.Fatal("hash with older parameters rejected the correct password")
	}
	if !NeedsRehash(old) {
		t.Error("older parameters should need rehash")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$x$y$z$w"} {
		if _, err := CheckPassword("x", h); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("CheckPassword(%q) error = %v, want ErrInvalidHash", h, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("short password accepted")
	}
	if err := ValidatePassword(strings.Repeat("a", MaxPasswordLength+1)); err == nil {
		t.Error("long password accepted")
	}
	if err := ValidatePassword("long-enough-password"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIdentity(t *testing.T) {
	var anon *Identity
	if anon.CanEditContent() || anon.IsAdmin() || anon.IDPtr() != nil {
		t.Error("nil identity must have no capabilities")
	}

	editor := &Identity{ID: 7, Email: "ed@example.com", Role: "editor"}
	if !editor.CanEditContent() {
		t.Error("editor should edit content")
	}
	if editor.IsAdmin() {
		t.Error("editor is not admin")
	}
	if editor.DisplayName() != "ed@example.com" {
		t.Errorf("DisplayName = %q", editor.DisplayName())
	}
	if *editor.IDPtr() != 7 {
		t.Errorf("IDPtr = %d", *editor.IDPtr())
	}

	customer := &Identity{ID: 9, Role: "customer"}
	if customer.CanEditContent() {
		t.Error("customer must not edit content")
	}
}
