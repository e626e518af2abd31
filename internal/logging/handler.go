// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that also persists WARN and ERROR
// records to the events table, so operational problems show up next to
// security events in the CMS.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/store"
)

// writeTimeout bounds the event insert so a locked database cannot stall logging.
const writeTimeout = 2 * time.Second

// EventLogHandler wraps another handler and copies records at or above level
// into the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewEventLogHandler creates a handler that persists WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom persistence threshold.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.persist(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// persist runs detached from the request context so a cancelled request
// still leaves its warning behind.
func (h *EventLogHandler) persist(r slog.Record) {
	fields := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	category := categoryFor(r.Message, fields)
	delete(fields, "category")

	ip, _ := fields["ip"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, _ = h.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		IpAddress: ip,
		Metadata:  encodeMetadata(fields),
		CreatedAt: r.Time.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// categoryFor prefers an explicit "category" attribute and otherwise infers
// one from the message.
func categoryFor(message string, fields map[string]any) string {
	if c, ok := fields["category"].(string); ok && c != "" {
		return c
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "auth"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "csrf") || strings.Contains(msg, "honeypot"):
		return model.EventCategorySecurity
	case strings.Contains(msg, "section") || strings.Contains(msg, "publish") || strings.Contains(msg, "rebuild"):
		return model.EventCategoryContent
	case strings.Contains(msg, "submission") || strings.Contains(msg, "inquiry") || strings.Contains(msg, "newsletter"):
		return model.EventCategorySubmission
	case strings.Contains(msg, "mail") || strings.Contains(msg, "notification"):
		return model.EventCategoryMail
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}

func encodeMetadata(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	for k, v := range fields {
		switch val := v.(type) {
		case error:
			fields[k] = val.Error()
		case fmt.Stringer:
			fields[k] = val.String()
		}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(b)
}
