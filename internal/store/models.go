// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	Name         string       `json:"name"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"-"`
}

type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"-"`
	IpAddress string        `json:"ip_address"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type Section struct {
	ID                string
	Type              string
	ItemKey           string
	Position          int64
	Status            string
	DraftContent      string
	PublishedContent  sql.NullString
	PublishedRevision sql.NullInt64
	PublishedAt       sql.NullTime
	Revision          int64
	CreatedBy         sql.NullInt64
	UpdatedBy         sql.NullInt64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type SectionRevision struct {
	ID        int64
	SectionID string
	Revision  int64
	Content   string
	Published bool
	CreatedBy sql.NullInt64
	CreatedAt time.Time
}

type AuditLog struct {
	ID         int64         `json:"id"`
	Action     string        `json:"action"`
	EntityType string        `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	ActorID    sql.NullInt64 `json:"-"`
	ActorName  string        `json:"actor_name"`
	Changes    string        `json:"changes"`
	CreatedAt  time.Time     `json:"created_at"`
}

type Destination struct {
	ID                  int64        `json:"id"`
	Slug                string       `json:"slug"`
	Name                string       `json:"name"`
	Region              string       `json:"region"`
	Summary             string       `json:"summary"`
	DescriptionMarkdown string       `json:"description_markdown"`
	HeroImageUrl        string       `json:"hero_image_url"`
	Status              string       `json:"status"`
	PublishedAt         sql.NullTime `json:"-"`
	Position            int64        `json:"position"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

type Package struct {
	ID                  int64         `json:"id"`
	Slug                string        `json:"slug"`
	DestinationID       sql.NullInt64 `json:"-"`
	Title               string        `json:"title"`
	Summary             string        `json:"summary"`
	DescriptionMarkdown string        `json:"description_markdown"`
	DurationDays        int64         `json:"duration_days"`
	PriceCents          int64         `json:"price_cents"`
	Currency            string        `json:"currency"`
	HeroImageUrl        string        `json:"hero_image_url"`
	Status              string        `json:"status"`
	PublishedAt         sql.NullTime  `json:"-"`
	Position            int64         `json:"position"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

type Image struct {
	ID          int64         `json:"id"`
	Uuid        string        `json:"uuid"`
	StorageKey  string        `json:"storage_key"`
	Url         string        `json:"url"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Width       int64         `json:"width"`
	Height      int64         `json:"height"`
	Size        int64         `json:"size"`
	Alt         string        `json:"alt"`
	UploadedBy  sql.NullInt64 `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
}

type ContactInquiry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	IpAddress   string    `json:"ip_address"`
	Client      string    `json:"client"`
	CountryCode string    `json:"country_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewsletterSubscription struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	Name           string       `json:"name"`
	Status         string       `json:"status"`
	Source         string       `json:"source"`
	SubscribedAt   time.Time    `json:"subscribed_at"`
	UnsubscribedAt sql.NullTime `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type CustomPackageRequest struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Destinations string    `json:"-"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Travellers   int64     `json:"travellers"`
	Budget       string    `json:"budget"`
	Notes        string    `json:"notes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Booking struct {
	ID         string        `json:"id"`
	PackageID  int64         `json:"package_id"`
	UserID     sql.NullInt64 `json:"-"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone"`
	TravelDate string        `json:"travel_date"`
	Travellers int64         `json:"travellers"`
	Notes      string        `json:"notes"`
	Status     string        `json:"status"`
	IpAddress  string        `json:"ip_address"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type Notification struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	Reference   string       `json:"reference"`
	Recipient   string       `json:"recipient"`
	Subject     string       `json:"subject"`
	HtmlBody    string       `json:"-"`
	TextBody    string       `json:"-"`
	Status      string       `json:"status"`
	Attempts    int64        `json:"attempts"`
	LastError   string       `json:"last_error"`
	NextRetryAt sql.NullTime `json:"-"`
	SentAt      sql.NullTime `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
