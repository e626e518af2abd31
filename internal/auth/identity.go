// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "github.com/olegiv/voyage-cms/internal/model"

// Identity is the authenticated caller. A nil *Identity means anonymous.
type Identity struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

// CanEditContent reports whether the identity may use the CMS.
func (i *Identity) CanEditContent() bool {
	return i != nil && model.CanEditContent(i.Role)
}

// IsAdmin reports whether the identity has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.RoleAdmin
}

// DisplayName is the name written into audit entries.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// IDPtr returns a pointer to the identity's id, or nil when anonymous.
func (i *Identity) IDPtr() *int64 {
	if i == nil {
		return nil
	}
	id := i.ID
	return &id
}
