// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	richPolicy   = bluemonday.UGCPolicy()
)

// Plain strips every tag from s.
func Plain(s string) string {
	return strictPolicy.Sanitize(s)
}

// HTML keeps safe user-generated markup (links, lists, emphasis) and drops
// scripts, handlers, and unsafe URLs.
func HTML(s string) string {
	return richPolicy.Sanitize(s)
}

// Content walks a decoded JSON document and sanitizes every string in place:
// keys ending in _html keep safe markup, keys ending in _markdown are left
// for rendering, keys ending in _url are trimmed (CheckURLs vets them), and
// everything else is stripped to plain text.
func Content(doc map[string]any) map[string]any {
	for k, v := range doc {
		doc[k] = contentValue(k, v)
	}
	return doc
}

func contentValue(key string, v any) any {
	switch val := v.(type) {
	case string:
		switch {
		case strings.HasSuffix(key, "_markdown"):
			return val
		case strings.HasSuffix(key, "_url"):
			return strings.TrimSpace(val)
		case strings.HasSuffix(key, "_html"):
			return HTML(val)
		default:
			return Plain(val)
		}
	case map[string]any:
		return Content(val)
	case []any:
		for i := range val {
			val[i] = contentValue(key, val[i])
		}
		return val
	default:
		return v
	}
}
