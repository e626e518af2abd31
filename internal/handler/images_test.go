// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/storage"
	"github.com/olegiv/voyage-cms/internal/testutil"
)

func newImagesEnv(t *testing.T) (*testEnv, string) {
	t.Helper()
	e := newTestEnv(t)

	dir := t.TempDir()
	st, err := storage.NewLocalStorage(dir, storage.DefaultBaseURL)
	require.NoError(t, err)

	h := NewImagesHandler(e.rs, service.NewImageService(e.db, st, testutil.TestLoggerSilent()))
	e.router.Get("/api/cms/images", h.List)
	e.router.Post("/api/cms/images", h.Upload)
	e.router.Patch("/api/cms/images/{id}", h.Update)
	e.router.Delete("/api/cms/images/{id}", h.Delete)
	return e, dir
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (e *testEnv) upload(filename string, data []byte, alt string, id *auth.Identity) *httptest.ResponseRecorder {
	e.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(e.t, err)
		_, err = fw.Write(data)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.WriteField("alt", alt))
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cms/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if id != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), id))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestImages_UploadListUpdateDelete(t *testing.T) {
	e, dir := newImagesEnv(t)

	rr := e.upload("Beach Day.png", pngBytes(t), "Praia da Rocha", e.editor)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	img := decode(t, rr)["image"].(map[string]any)
	assert.Equal(t, "image/png", img["content_type"])
	assert.EqualValues(t, 4, img["width"])
	assert.EqualValues(t, 3, img["height"])
	assert.Equal(t, "Praia da Rocha", img["alt"])

	key := img["storage_key"].(string)
	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)

	list := decode(t, e.do(http.MethodGet, "/api/cms/images", nil, e.editor))
	assert.Len(t, list["images"], 1)

	uuid := img["uuid"].(string)
	rr = e.do(http.MethodPatch, "/api/cms/images/"+uuid, map[string]string{"alt": "Rocha beach at noon"}, e.editor)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Rocha beach at noon", decode(t, rr)["image"].(map[string]any)["alt"])

	rr = e.do(http.MethodDelete, "/api/cms/images/"+uuid, nil, e.editor)
	require.Equal(t, http.StatusOK, rr.Code)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/api/cms/images/"+uuid, nil, e.editor).Code)
}

func TestImages_UploadErrors(t *testing.T) {
	e, _ := newImagesEnv(t)

	rr := e.upload("", nil, "no file", e.editor)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, detailsOf(t, decode(t, rr)), "file")

	rr = e.upload("notes.png", []byte("definitely not an image"), "", e.editor)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, http.StatusUnauthorized, e.upload("a.png", pngBytes(t), "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.upload("a.png", pngBytes(t), "", e.customer).Code)

	rr = e.do(http.MethodPost, "/api/cms/images", `{"alt":"json"}`, e.editor)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
