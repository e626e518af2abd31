// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package sanitize

import (
	"net/url"
	"strconv"
	"strings"
)

// UnsafeURLMessage is reported for link fields SafeURL rejects.
const UnsafeURLMessage = "must be an http(s), mailto or tel URL, or a site path starting with /"

// SafeURL reports whether s may be rendered as a link or image source on
// the public site. Empty values pass; optional fields are checked by the
// schema.
func SafeURL(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, "\\\x00\t\r\n") {
		return false
	}
	if strings.HasPrefix(s, "/") {
		return !strings.HasPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto", "tel":
		return u.Opaque != ""
	default:
		return false
	}
}

// CheckURLs walks a sanitized document and returns the path of every _url
// field holding an unsafe value, e.g. "links.0.link_url".
func CheckURLs(doc map[string]any) map[string]string {
	bad := map[string]string{}
	checkURLs("", doc, bad)
	if len(bad) == 0 {
		return nil
	}
	return bad
}

func checkURLs(path string, v any, bad map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			p := k
			if path != "" {
				p = path + "." + k
			}
			if s, ok := child.(string); ok {
				if strings.HasSuffix(k, "_url") && !SafeURL(s) {
					bad[p] = UnsafeURLMessage
				}
				continue
			}
			checkURLs(p, child, bad)
		}
	case []any:
		for i, child := range val {
			if s, ok := child.(string); ok {
				if strings.HasSuffix(path, "_url") && !SafeURL(s) {
					bad[path+"."+strconv.Itoa(i)] = UnsafeURLMessage
				}
				continue
			}
			checkURLs(path+"."+strconv.Itoa(i), child, bad)
		}
	}
}
