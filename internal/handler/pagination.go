// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
)

// Pagination defaults for CMS list endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Page is a parsed ?limit=&offset= pair.
type Page struct {
	Limit  int64
	Offset int64
}

// Meta contains pagination metadata for list responses.
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

// parsePage reads limit and offset from the query string. Invalid values
// fall back to the defaults; limit is capped at MaxPageSize.
func parsePage(r *http.Request) Page {
	p := Page{Limit: DefaultPageSize}

	q := r.URL.Query()
	if v, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil && v > 0 {
		p.Limit = min(v, MaxPageSize)
	}
	if v, err := strconv.ParseInt(q.Get("offset"), 10, 64); err == nil && v > 0 {
		p.Offset = v
	}
	return p
}

func (p Page) meta(total int64) Meta {
	return Meta{Total: total, Limit: p.Limit, Offset: p.Offset}
}
