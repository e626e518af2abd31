// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithTimeout(d time.Duration, h http.HandlerFunc) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	Timeout(d)(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/packages", nil))
	return rr
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		handler  http.HandlerFunc
		wantCode int
		wantBody string
	}{
		{
			name:    "fast handler passes through",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"success":true}`))
			},
			wantCode: http.StatusCreated,
			wantBody: `{"success":true}`,
		},
		{
			name:    "implicit 200 on write",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok"))
			},
			wantCode: http.StatusOK,
			wantBody: "ok",
		},
		{
			name:    "slow handler gets 503",
			timeout: 20 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
					w.WriteHeader(http.StatusOK)
				case <-r.Context().Done():
				}
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `"request timed out"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveWithTimeout(tt.timeout, tt.handler)
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}
}

func TestTimeout_KeepsHandlerHeaders(t *testing.T) {
	rr := serveWithTimeout(time.Second, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestTimeoutWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rr}

	tw.WriteHeader(http.StatusAccepted)
	tw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusAccepted, rr.Code)

	n, err := tw.Write([]byte("queued"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	tw.timedOut = true
	_, err = tw.Write([]byte("late"))
	assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	assert.Equal(t, "queued", rr.Body.String())
}
