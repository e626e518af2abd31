// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/osteele/liquid"

	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/sanitize"
	"github.com/olegiv/voyage-cms/internal/section"
)

// TemplateSource looks up editor-published templates.
type TemplateSource interface {
	EmailTemplate(ctx context.Context, key string) (*section.EmailTemplate, error)
}

// Rendered is a template rendered for one recipient.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type parsedTemplate struct {
	subject *liquid.Template
	html    *liquid.Template
	text    *liquid.Template
}

// Renderer renders notification emails from liquid templates.
type Renderer struct {
	engine   *liquid.Engine
	source   TemplateSource
	defaults map[string]parsedTemplate
	globals  map[string]any
	logger   *slog.Logger
}

// NewRenderer parses the built-in templates. source may be nil, in which
// case only the built-in templates are used.
func NewRenderer(source TemplateSource, siteName string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{
		engine:   liquid.NewEngine(),
		source:   source,
		defaults: make(map[string]parsedTemplate, len(defaultTemplates)),
		globals:  map[string]any{"site_name": siteName},
		logger:   logger,
	}

	for key, src := range defaultTemplates {
		parsed, err := r.parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing built-in template %s: %w", key, err)
		}
		r.defaults[key] = parsed
	}
	return r, nil
}

// Keys returns the template keys with a built-in default.
func (r *Renderer) Keys() []string {
	keys := make([]string, 0, len(r.defaults))
	for k := range r.defaults {
		keys = append(keys, k)
	}
	return keys
}

// Render renders the template named key. A published template with that
// key takes precedence; if it cannot be loaded or rendered, the built-in
// default is used and the problem is logged.
func (r *Renderer) Render(ctx context.Context, key string, vars map[string]any) (Rendered, error) {
	bindings := make(map[string]any, len(r.globals)+len(vars))
	for k, v := range r.globals {
		bindings[k] = v
	}
	for k, v := range vars {
		bindings[k] = v
	}

	if out, ok := r.renderStored(ctx, key, bindings); ok {
		return out, nil
	}

	tpl, ok := r.defaults[key]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown mail template %q", key)
	}
	return r.execute(tpl, bindings)
}

func (r *Renderer) renderStored(ctx context.Context, key string, bindings map[string]any) (Rendered, bool) {
	if r.source == nil {
		return Rendered{}, false
	}

	stored, err := r.source.EmailTemplate(ctx, key)
	if err != nil {
		r.logger.Warn("loading email template failed", "category", model.EventCategoryMail, "key", key, "error", err)
		return Rendered{}, false
	}
	if stored == nil {
		return Rendered{}, false
	}

	// Plain-text fields were entity-escaped when the section was saved.
	src := templateSource{
		Subject: html.UnescapeString(stored.Subject),
		HTML:    stored.BodyHTML,
		Text:    html.UnescapeString(stored.BodyText),
	}
	parsed, err := r.parse(src)
	if err != nil {
		r.logger.Warn("email template does not parse, using default", "category", model.EventCategoryMail, "key", key, "error", err)
		return Rendered{}, false
	}

	out, err := r.execute(parsed, bindings)
	if err != nil {
		r.logger.Warn("email template failed to render, using default", "category", model.EventCategoryMail, "key", key, "error", err)
		return Rendered{}, false
	}
	return out, true
}

func (r *Renderer) parse(src templateSource) (parsedTemplate, error) {
	var (
		p   parsedTemplate
		err error
	)
	if p.subject, err = r.engine.ParseString(src.Subject); err != nil {
		return p, fmt.Errorf("subject: %w", err)
	}
	if p.html, err = r.engine.ParseString(src.HTML); err != nil {
		return p, fmt.Errorf("html: %w", err)
	}
	if src.Text != "" {
		if p.text, err = r.engine.ParseString(src.Text); err != nil {
			return p, fmt.Errorf("text: %w", err)
		}
	}
	return p, nil
}

func (r *Renderer) execute(p parsedTemplate, bindings map[string]any) (Rendered, error) {
	subject, err := p.subject.RenderString(bindings)
	if err != nil {
		return Rendered{}, fmt.Errorf("rendering subject: %w", err)
	}
	body, err := p.html.RenderString(bindings)
	if err != nil {
		return Rendered{}, fmt.Errorf("rendering html: %w", err)
	}

	var text string
	if p.text != nil {
		if text, err = p.text.RenderString(bindings); err != nil {
			return Rendered{}, fmt.Errorf("rendering text: %w", err)
		}
	} else {
		text = sanitize.Plain(body)
	}

	// Submitted values arrive HTML-escaped; plain parts must not show entities.
	return Rendered{
		Subject: strings.Join(strings.Fields(html.UnescapeString(subject)), " "),
		HTML:    body,
		Text:    strings.TrimSpace(html.UnescapeString(text)),
	}, nil
}
