// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Publication statuses shared by sections and catalogue entities.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
)

// ReadMode selects which version of content a reader sees.
type ReadMode string

// Read modes.
const (
	ModeCMS    ReadMode = "cms"
	ModePublic ReadMode = "public"
)

// ParseReadMode returns the mode named by s, defaulting to public.
func ParseReadMode(s string) ReadMode {
	if ReadMode(s) == ModeCMS {
		return ModeCMS
	}
	return ModePublic
}

// Audit actions.
const (
	AuditCreate  = "CREATE"
	AuditUpdate  = "UPDATE"
	AuditDelete  = "DELETE"
	AuditPublish = "PUBLISH"
)

// Audit entity types for non-section records.
const (
	EntityDestination    = "destination"
	EntityPackage        = "package"
	EntityImage          = "image"
	EntityContactInquiry = "contact_inquiry"
	EntityBooking        = "booking"
	EntityCustomPackage  = "custom_package_request"
)
