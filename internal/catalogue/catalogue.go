// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalogue manages the destinations and tour packages shown on
// the public site.
package catalogue

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/sanitize"
	"github.com/olegiv/voyage-cms/internal/section"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/util"
)

// Destination is a destination as returned to readers.
type Destination struct {
	ID                  int64      `json:"id"`
	Slug                string     `json:"slug"`
	Name                string     `json:"name"`
	Region              string     `json:"region"`
	Summary             string     `json:"summary"`
	DescriptionMarkdown string     `json:"description_markdown"`
	DescriptionHTML     string     `json:"description_html,omitempty"`
	HeroImageURL        string     `json:"hero_image_url"`
	Status              string     `json:"status"`
	PublishedAt         *time.Time `json:"published_at"`
	Position            int64      `json:"position"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Package is a tour package as returned to readers.
type Package struct {
	ID                  int64      `json:"id"`
	Slug                string     `json:"slug"`
	DestinationID       *int64     `json:"destination_id"`
	Title               string     `json:"title"`
	Summary             string     `json:"summary"`
	DescriptionMarkdown string     `json:"description_markdown"`
	DescriptionHTML     string     `json:"description_html,omitempty"`
	DurationDays        int64      `json:"duration_days"`
	PriceCents          int64      `json:"price_cents"`
	Currency            string     `json:"currency"`
	HeroImageURL        string     `json:"hero_image_url"`
	Status              string     `json:"status"`
	PublishedAt         *time.Time `json:"published_at"`
	Position            int64      `json:"position"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func destinationView(d store.Destination, render bool) Destination {
	out := Destination{
		ID:                  d.ID,
		Slug:                d.Slug,
		Name:                d.Name,
		Region:              d.Region,
		Summary:             d.Summary,
		DescriptionMarkdown: d.DescriptionMarkdown,
		HeroImageURL:        d.HeroImageUrl,
		Status:              d.Status,
		PublishedAt:         timePtr(d.PublishedAt.Time, d.PublishedAt.Valid),
		Position:            d.Position,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	if render {
		out.DescriptionHTML, _ = section.RenderMarkdown(d.DescriptionMarkdown)
	}
	return out
}

func packageView(p store.Package, render bool) Package {
	out := Package{
		ID:                  p.ID,
		Slug:                p.Slug,
		Title:               p.Title,
		Summary:             p.Summary,
		DescriptionMarkdown: p.DescriptionMarkdown,
		DurationDays:        p.DurationDays,
		PriceCents:          p.PriceCents,
		Currency:            p.Currency,
		HeroImageURL:        p.HeroImageUrl,
		Status:              p.Status,
		PublishedAt:         timePtr(p.PublishedAt.Time, p.PublishedAt.Valid),
		Position:            p.Position,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.DestinationID.Valid {
		id := p.DestinationID.Int64
		out.DestinationID = &id
	}
	if render {
		out.DescriptionHTML, _ = section.RenderMarkdown(p.DescriptionMarkdown)
	}
	return out
}

func timePtr(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	return &t
}

// DestinationInput is the editable part of a destination. An empty Slug is
// derived from Name.
type DestinationInput struct {
	Slug                string `json:"slug"`
	Name                string `json:"name"`
	Region              string `json:"region"`
	Summary             string `json:"summary"`
	DescriptionMarkdown string `json:"description_markdown"`
	HeroImageURL        string `json:"hero_image_url"`
	Status              string `json:"status"`
	Position            int64  `json:"position"`
}

// EditDestination returns the input that reproduces d, for partial updates.
func EditDestination(d Destination) DestinationInput {
	return DestinationInput{
		Slug:                d.Slug,
		Name:                d.Name,
		Region:              d.Region,
		Summary:             d.Summary,
		DescriptionMarkdown: d.DescriptionMarkdown,
		HeroImageURL:        d.HeroImageURL,
		Status:              d.Status,
		Position:            d.Position,
	}
}

func (in *DestinationInput) normalize() {
	in.Name = strings.TrimSpace(sanitize.Plain(in.Name))
	in.Region = strings.TrimSpace(sanitize.Plain(in.Region))
	in.Summary = strings.TrimSpace(sanitize.Plain(in.Summary))
	in.HeroImageURL = strings.TrimSpace(in.HeroImageURL)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Name)
	}
	if in.Status == "" {
		in.Status = model.StatusDraft
	}
}

// Validate implements validation.Validatable.
func (in DestinationInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Slug, validation.Required, validation.By(validSlug)),
		validation.Field(&in.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&in.Region, validation.Length(0, 100)),
		validation.Field(&in.Summary, validation.Length(0, 500)),
		validation.Field(&in.DescriptionMarkdown, validation.Length(0, 20000)),
		validation.Field(&in.HeroImageURL, validation.Length(0, 2000), validation.By(imageURL)),
		validation.Field(&in.Status, validation.In(model.StatusDraft, model.StatusPublished)),
		validation.Field(&in.Position, validation.Min(0)),
	)
}

// PackageInput is the editable part of a package. An empty Slug is derived
// from Title.
type PackageInput struct {
	Slug                string `json:"slug"`
	DestinationID       *int64 `json:"destination_id"`
	Title               string `json:"title"`
	Summary             string `json:"summary"`
	DescriptionMarkdown string `json:"description_markdown"`
	DurationDays        int64  `json:"duration_days"`
	PriceCents          int64  `json:"price_cents"`
	Currency            string `json:"currency"`
	HeroImageURL        string `json:"hero_image_url"`
	Status              string `json:"status"`
	Position            int64  `json:"position"`
}

// EditPackage returns the input that reproduces p, for partial updates.
func EditPackage(p Package) PackageInput {
	return PackageInput{
		Slug:                p.Slug,
		DestinationID:       p.DestinationID,
		Title:               p.Title,
		Summary:             p.Summary,
		DescriptionMarkdown: p.DescriptionMarkdown,
		DurationDays:        p.DurationDays,
		PriceCents:          p.PriceCents,
		Currency:            p.Currency,
		HeroImageURL:        p.HeroImageURL,
		Status:              p.Status,
		Position:            p.Position,
	}
}

func (in *PackageInput) normalize() {
	in.Title = strings.TrimSpace(sanitize.Plain(in.Title))
	in.Summary = strings.TrimSpace(sanitize.Plain(in.Summary))
	in.HeroImageURL = strings.TrimSpace(in.HeroImageURL)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = "EUR"
	}
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Title)
	}
	if in.Status == "" {
		in.Status = model.StatusDraft
	}
}

// Validate implements validation.Validatable.
func (in PackageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Slug, validation.Required, validation.By(validSlug)),
		validation.Field(&in.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&in.Summary, validation.Length(0, 500)),
		validation.Field(&in.DescriptionMarkdown, validation.Length(0, 20000)),
		validation.Field(&in.DurationDays, validation.Required, validation.Min(1), validation.Max(365)),
		validation.Field(&in.PriceCents, validation.Min(0)),
		validation.Field(&in.Currency, validation.Required, is.CurrencyCode),
		validation.Field(&in.HeroImageURL, validation.Length(0, 2000), validation.By(imageURL)),
		validation.Field(&in.Status, validation.In(model.StatusDraft, model.StatusPublished)),
		validation.Field(&in.Position, validation.Min(0)),
	)
}

// imageURL accepts site paths such as /uploads/... and absolute http(s)
// URLs, e.g. an S3 public URL.
func imageURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	lower := strings.ToLower(s)
	if !sanitize.SafeURL(s) || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return errors.New("must be an http(s) URL or a site path starting with /")
	}
	return nil
}

func validSlug(value any) error {
	s, _ := value.(string)
	if s != "" && !util.IsValidSlug(s) {
		return errors.New("must contain only lowercase letters, digits and single hyphens")
	}
	return nil
}
