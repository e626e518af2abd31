// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sanitize cleans untrusted text before it is validated or stored.
// Submission fields get NFC normalization, trimming, and escaping of HTML
// metacharacters; CMS section content goes through bluemonday policies.
package sanitize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var escaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Text normalizes s to NFC, trims surrounding whitespace, and escapes
// < > " ' and /.
func Text(s string) string {
	return escaper.Replace(strings.TrimSpace(norm.NFC.String(s)))
}

// Email trims and lowercases an address without escaping it, so the format
// check sees what the submitter typed.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// Fields applies Text to every pointed-to string in place.
func Fields(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = Text(*f)
		}
	}
}

// Slice applies Text to each element and drops entries that end up empty.
func Slice(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = Text(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
