// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/testutil"
)

type testEnv struct {
	t        *testing.T
	db       *sql.DB
	rs       Responder
	router   chi.Router
	editor   *auth.Identity
	customer *auth.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	return &testEnv{
		t:        t,
		db:       db,
		rs:       Responder{Logger: testutil.TestLoggerSilent()},
		router:   chi.NewRouter(),
		editor:   testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor, "editor-password-1"),
		customer: testutil.CreateUser(t, db, "customer@example.com", model.RoleCustomer, "customer-password-1"),
	}
}

// do sends a request through the router as id. body may be nil, a string,
// or any value to encode as JSON.
func (e *testEnv) do(method, target string, body any, id *auth.Identity) *httptest.ResponseRecorder {
	e.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	if id != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), id))
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the response body into a generic map.
func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %q: %v", rr.Body.String(), err)
	}
	return body
}

func detailsOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("no details in %v", body)
	}
	return details
}
