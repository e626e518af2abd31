// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/voyage-cms/internal/apperr"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Responder writes the shared JSON envelope. Unexpected errors are logged
// with the request id; their message is hidden outside development.
type Responder struct {
	Logger *slog.Logger
	IsDev  bool
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, statusCode int, message string, details map[string]string) {
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	if len(details) > 0 {
		body["details"] = details
	}
	writeJSON(w, statusCode, body)
}

// writeJSONSuccess writes a JSON success response.
func writeJSONSuccess(w http.ResponseWriter, statusCode int, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	writeJSON(w, statusCode, data)
}

// Error maps err to its status code and writes the error envelope.
func (rs Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)

	var (
		validationErr *apperr.ValidationError
		rateErr       *apperr.RateLimitError
		conflictErr   *apperr.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSONError(w, status, "Validation failed", validationErr.Fields)
	case errors.As(err, &rateErr):
		secs := rateErr.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, status, map[string]any{
			"success":     false,
			"error":       "Too many requests. Please try again later.",
			"retry_after": secs,
			"remaining":   0,
		})
	case errors.As(err, &conflictErr):
		var details map[string]string
		if conflictErr.Field != "" {
			details = map[string]string{conflictErr.Field: conflictErr.Message}
		}
		writeJSONError(w, status, conflictErr.Message, details)
	case status == http.StatusInternalServerError:
		rs.logger().Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
		)
		msg := "Internal server error"
		if rs.IsDev {
			msg = err.Error()
		}
		writeJSONError(w, status, msg, nil)
	default:
		writeJSONError(w, status, err.Error(), nil)
	}
}

func (rs Responder) logger() *slog.Logger {
	if rs.Logger == nil {
		return slog.Default()
	}
	return rs.Logger
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched so the validator reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.FieldError("body", "request body is too large")
		}
		return apperr.FieldError("body", "request body must be valid JSON")
	}
}

// NotFound answers unknown routes with the JSON error envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusNotFound, "Not found", nil)
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}
