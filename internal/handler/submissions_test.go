// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/submission"
	"github.com/olegiv/voyage-cms/internal/testutil"
)

func newSubmissionsEnv(t *testing.T) (*testEnv, *store.Queries) {
	t.Helper()
	e := newTestEnv(t)

	subs := submission.NewService(e.db, submission.Options{Logger: testutil.TestLoggerSilent()})
	h := NewSubmissionsHandler(e.rs, subs)

	e.router.Post("/api/contact", h.Contact)
	e.router.Post("/api/newsletter", h.Subscribe)
	e.router.Post("/api/newsletter/unsubscribe", h.Unsubscribe)
	e.router.Post("/api/custom-packages", h.CustomPackage)
	e.router.Get("/api/cms/contact", h.ListContacts)
	e.router.Get("/api/cms/contact/{id}", h.GetContact)
	e.router.Patch("/api/cms/contact/{id}", h.UpdateContact)
	e.router.Delete("/api/cms/contact/{id}", h.DeleteContact)
	e.router.Get("/api/cms/newsletter", h.ListSubscriptions)

	return e, store.New(e.db)
}

func TestContact_InvalidReportsFields(t *testing.T) {
	e, q := newSubmissionsEnv(t)

	rr := e.do(http.MethodPost, "/api/contact", map[string]string{
		"name": "A", "email": "bad", "subject": "hi", "message": "short",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	details := detailsOf(t, decode(t, rr))
	for _, field := range []string{"name", "email", "subject", "message"} {
		assert.Contains(t, details, field)
	}

	n, err := q.CountContactInquiries(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestContact_ValidThenManage(t *testing.T) {
	e, _ := newSubmissionsEnv(t)

	rr := e.do(http.MethodPost, "/api/contact", map[string]string{
		"name": "Ana Silva", "email": "ana@example.com", "subject": "Trip to Porto", "message": "Do you run tours in May?",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	receipt := decode(t, rr)
	assert.Equal(t, true, receipt["success"])
	id, _ := receipt["id"].(string)
	require.NotEmpty(t, id)

	list := e.do(http.MethodGet, "/api/cms/contact?status=NEW", nil, e.editor)
	require.Equal(t, http.StatusOK, list.Code)
	body := decode(t, list)
	assert.Len(t, body["items"], 1)
	assert.EqualValues(t, 1, body["meta"].(map[string]any)["total"])

	upd := e.do(http.MethodPatch, "/api/cms/contact/"+id, map[string]string{"status": model.InquiryResolved}, e.editor)
	require.Equal(t, http.StatusOK, upd.Code)
	assert.Equal(t, model.InquiryResolved, decode(t, upd)["item"].(map[string]any)["status"])

	bad := e.do(http.MethodPatch, "/api/cms/contact/"+id, map[string]string{"status": "ARCHIVED"}, e.editor)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	del := e.do(http.MethodDelete, "/api/cms/contact/"+id, nil, e.editor)
	require.Equal(t, http.StatusOK, del.Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/cms/contact/"+id, nil, e.editor).Code)
}

func TestContact_HoneypotLooksLikeSuccess(t *testing.T) {
	e, q := newSubmissionsEnv(t)

	rr := e.do(http.MethodPost, "/api/contact", map[string]string{
		"name": "Bot", "email": "bot@example.com", "subject": "Cheap pills", "message": "Buy now buy now",
		"website": "http://spam.example",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["id"])

	n, err := q.CountContactInquiries(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewsletter_TwiceKeepsOneActiveRow(t *testing.T) {
	e, q := newSubmissionsEnv(t)

	for i := 0; i < 2; i++ {
		rr := e.do(http.MethodPost, "/api/newsletter", map[string]string{"email": "a@b.com"}, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, true, decode(t, rr)["success"])
	}

	n, err := q.CountNewsletterSubscriptions(context.Background(), model.SubscriptionActive)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rr := e.do(http.MethodPost, "/api/newsletter/unsubscribe", map[string]string{"email": "a@b.com"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	n, err = q.CountNewsletterSubscriptions(context.Background(), model.SubscriptionActive)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCustomPackage_RequiresLogin(t *testing.T) {
	e, _ := newSubmissionsEnv(t)

	form := map[string]any{
		"name": "Ana", "email": "ana@example.com", "destinations": []string{"Lisbon"},
		"start_date": "2026-06-01", "end_date": "2026-06-10", "travellers": 2,
	}

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/custom-packages", form, nil).Code)

	rr := e.do(http.MethodPost, "/api/custom-packages", form, e.customer)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestCMSLists_RequireEditor(t *testing.T) {
	e, _ := newSubmissionsEnv(t)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/cms/newsletter", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/cms/newsletter", nil, e.customer).Code)

	rr := e.do(http.MethodGet, "/api/cms/newsletter", nil, e.editor)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, decode(t, rr)["items"])
}

func TestMalformedBody(t *testing.T) {
	e, _ := newSubmissionsEnv(t)

	rr := e.do(http.MethodPost, "/api/newsletter", `{"email":`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, detailsOf(t, decode(t, rr)), "body")
}
