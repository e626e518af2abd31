// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package section

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/olegiv/voyage-cms/internal/sanitize"
)

// markdownSuffix marks content fields holding markdown source.
const markdownSuffix = "_markdown"

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Linkify),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// RenderMarkdown converts markdown to sanitized HTML. Raw HTML in the source
// is dropped by the renderer and the output is passed through the UGC policy.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return sanitize.HTML(buf.String()), nil
}

// renderContent adds a rendered foo_html sibling for every foo_markdown
// field, recursing into nested objects and arrays.
func renderContent(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = renderValue(v)
		src, ok := v.(string)
		if !ok || !strings.HasSuffix(k, markdownSuffix) {
			continue
		}
		htmlKey := strings.TrimSuffix(k, markdownSuffix) + "_html"
		if html, err := RenderMarkdown(src); err == nil {
			out[htmlKey] = html
		}
	}
	return out
}

func renderValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return renderContent(val)
	case []any:
		items := make([]any, len(val))
		for i := range val {
			items[i] = renderValue(val[i])
		}
		return items
	default:
		return v
	}
}
