// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package section implements draft/publish storage for the page sections
// rendered by the static site.
package section

import (
	"sort"
)

// Kind distinguishes types with one instance from types with many.
type Kind string

// Section kinds.
const (
	KindSingleton Kind = "singleton"
	KindList      Kind = "list"
)

// Type describes one registered section type.
type Type struct {
	Name      string   `json:"name"`
	Kind      Kind     `json:"kind"`
	Versioned bool     `json:"versioned"`
	Pages     []string `json:"pages"`

	schemaFile string
}

// IsList reports whether the type holds an ordered collection of items.
func (t Type) IsList() bool {
	return t.Kind == KindList
}

// internalPage groups cache keys of types that no public page embeds.
const internalPage = "internal"

// cachePages returns the page keys used to cache and invalidate reads of t.
func (t Type) cachePages() []string {
	if len(t.Pages) == 0 {
		return []string{internalPage}
	}
	return t.Pages
}

// Page names used by the static site.
const (
	PageHome         = "home"
	PageAbout        = "about"
	PageDestinations = "destinations"
	PagePackages     = "packages"
	PageContact      = "contact"
)

// EmailTemplateType is the list type consulted by the mailer.
const EmailTemplateType = "email_template"

var registry = map[string]Type{}

func register(name string, kind Kind, versioned bool, schemaFile string, pages ...string) {
	registry[name] = Type{
		Name:       name,
		Kind:       kind,
		Versioned:  versioned,
		Pages:      pages,
		schemaFile: schemaFile,
	}
}

func init() {
	register("home_hero", KindSingleton, true, "hero.json", PageHome)
	register("home_cta", KindSingleton, true, "cta.json", PageHome)
	register("home_why_choose", KindSingleton, true, "home_why_choose.json", PageHome)
	register("home_testimonials", KindSingleton, false, "home_testimonials.json", PageHome)
	register("about_hero", KindSingleton, true, "hero.json", PageAbout)
	register("about_story", KindSingleton, true, "about_story.json", PageAbout)
	register("about_stats", KindSingleton, false, "about_stats.json", PageAbout, PageHome)
	register("about_values", KindSingleton, true, "about_values.json", PageAbout)
	register("about_cta", KindSingleton, false, "cta.json", PageAbout)
	register("destinations_hero", KindSingleton, false, "hero.json", PageDestinations)
	register("packages_hero", KindSingleton, false, "hero.json", PagePackages)
	register("contact_hero", KindSingleton, false, "hero.json", PageContact)
	register("contact_info", KindSingleton, true, "contact_info.json", PageContact)
	register("newsletter_cta", KindSingleton, false, "newsletter_cta.json", PageHome, PageAbout)
	register("footer", KindSingleton, true, "footer.json",
		PageHome, PageAbout, PageDestinations, PagePackages, PageContact)

	register("team_member", KindList, true, "team_member.json", PageAbout)
	register("faq", KindList, false, "faq.json", PageContact, PagePackages)
	register("resource", KindList, false, "resource.json", PageAbout)
	register(EmailTemplateType, KindList, true, "email_template.json")

	mustCompileSchemas()
}

// Lookup returns the registered type with the given name.
func Lookup(name string) (Type, bool) {
	t, ok := registry[name]
	return t, ok
}

// Types returns all registered types sorted by name.
func Types() []Type {
	types := make([]Type, 0, len(registry))
	for _, t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].Name < types[j].Name
	})
	return types
}
