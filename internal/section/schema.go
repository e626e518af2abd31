// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package section

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/olegiv/voyage-cms/internal/apperr"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemas = map[string]*jsonschema.Schema{}

func mustCompileSchemas() {
	compiled := map[string]*jsonschema.Schema{}
	for name, t := range registry {
		if s, ok := compiled[t.schemaFile]; ok {
			schemas[name] = s
			continue
		}
		s, err := compileSchema(t.schemaFile)
		if err != nil {
			panic(fmt.Sprintf("section %s: %v", name, err))
		}
		compiled[t.schemaFile] = s
		schemas[name] = s
	}
}

func compileSchema(file string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + file)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(file, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return compiler.Compile(file)
}

// Validate checks content against the schema of type t. Schema violations
// are returned as an *apperr.ValidationError keyed by dotted field path.
func Validate(t Type, content map[string]any) error {
	s, ok := schemas[t.Name]
	if !ok {
		return fmt.Errorf("no schema for section type %s", t.Name)
	}

	err := s.Validate(content)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validating %s: %w", t.Name, err)
	}

	fields := map[string]string{}
	collectIssues(verr, fields)
	if len(fields) == 0 {
		fields["content"] = verr.Message
	}
	return apperr.NewValidationError(fields)
}

func collectIssues(node *jsonschema.ValidationError, fields map[string]string) {
	if len(node.Causes) > 0 {
		for _, cause := range node.Causes {
			collectIssues(cause, fields)
		}
		return
	}

	base := fieldPath(node.InstanceLocation)

	// Missing properties are reported on the parent object.
	if missing, ok := strings.CutPrefix(node.Message, "missing properties: "); ok {
		for _, name := range strings.Split(missing, ",") {
			name = strings.Trim(strings.TrimSpace(name), "'")
			if name == "" {
				continue
			}
			key := name
			if base != "content" {
				key = base + "." + name
			}
			fields[key] = "is required"
		}
		return
	}

	if _, exists := fields[base]; !exists {
		fields[base] = node.Message
	}
}

// fieldPath turns a JSON pointer such as /items/0/title into items.0.title.
func fieldPath(pointer string) string {
	p := strings.Trim(pointer, "/")
	if p == "" {
		return "content"
	}
	return strings.ReplaceAll(p, "/", ".")
}
