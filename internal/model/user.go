// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the shared vocabulary of the site backend: roles,
// content statuses, audit actions, and submission lifecycle states.
package model

// User roles.
const (
	RoleAdmin    = "admin"
	RoleEditor   = "editor"
	RoleCustomer = "customer"
)

// RoleLevel returns a numeric level for role hierarchy.
// Customers and unknown roles have no CMS access.
func RoleLevel(role string) int {
	switch role {
	case RoleAdmin:
		return 2
	case RoleEditor:
		return 1
	default:
		return 0
	}
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleCustomer:
		return true
	}
	return false
}

// CanEditContent reports whether the role may mutate CMS content.
func CanEditContent(role string) bool {
	return RoleLevel(role) >= RoleLevel(RoleEditor)
}
