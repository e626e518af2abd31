// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// Contact inquiries

const contactInquiryColumns = `id, name, email, phone, subject, message, status, ip_address, client, country_code, created_at, updated_at`

func scanContactInquiry(row interface{ Scan(...any) error }) (ContactInquiry, error) {
	var i ContactInquiry
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.Subject,
		&i.Message,
		&i.Status,
		&i.IpAddress,
		&i.Client,
		&i.CountryCode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createContactInquiry = `-- name: CreateContactInquiry :one
INSERT INTO contact_inquiries (id, name, email, phone, subject, message, status, ip_address, client, country_code, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 'NEW', ?, ?, ?, ?, ?)
RETURNING ` + contactInquiryColumns

type CreateContactInquiryParams struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Subject     string
	Message     string
	IpAddress   string
	Client      string
	CountryCode string
	CreatedAt   time.Time
}

func (q *Queries) CreateContactInquiry(ctx context.Context, arg CreateContactInquiryParams) (ContactInquiry, error) {
	row := q.db.QueryRowContext(ctx, createContactInquiry,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Subject,
		arg.Message,
		arg.IpAddress,
		arg.Client,
		arg.CountryCode,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanContactInquiry(row)
}

const getContactInquiry = `-- name: GetContactInquiry :one
SELECT ` + contactInquiryColumns + ` FROM contact_inquiries WHERE id = ?`

func (q *Queries) GetContactInquiry(ctx context.Context, id string) (ContactInquiry, error) {
	return scanContactInquiry(q.db.QueryRowContext(ctx, getContactInquiry, id))
}

const listContactInquiries = `-- name: ListContactInquiries :many
SELECT ` + contactInquiryColumns + ` FROM contact_inquiries
WHERE (?1 = '' OR status = ?1)
ORDER BY created_at DESC
LIMIT ?2 OFFSET ?3`

type ListParams struct {
	Status string
	Limit  int64
	Offset int64
}

func (q *Queries) ListContactInquiries(ctx context.Context, arg ListParams) ([]ContactInquiry, error) {
	rows, err := q.db.QueryContext(ctx, listContactInquiries, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ContactInquiry
	for rows.Next() {
		i, err := scanContactInquiry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countContactInquiries = `-- name: CountContactInquiries :one
SELECT COUNT(*) FROM contact_inquiries WHERE (?1 = '' OR status = ?1)`

func (q *Queries) CountContactInquiries(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countContactInquiries, status).Scan(&count)
	return count, err
}

const updateContactInquiryStatus = `-- name: UpdateContactInquiryStatus :one
UPDATE contact_inquiries SET status = ?, updated_at = ? WHERE id = ?
RETURNING ` + contactInquiryColumns

func (q *Queries) UpdateContactInquiryStatus(ctx context.Context, id, status string, at time.Time) (ContactInquiry, error) {
	return scanContactInquiry(q.db.QueryRowContext(ctx, updateContactInquiryStatus, status, at, id))
}

const deleteContactInquiry = `-- name: DeleteContactInquiry :execrows
DELETE FROM contact_inquiries WHERE id = ?`

func (q *Queries) DeleteContactInquiry(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContactInquiry, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Newsletter subscriptions

const newsletterColumns = `id, email, name, status, source, subscribed_at, unsubscribed_at, created_at, updated_at`

func scanNewsletterSubscription(row interface{ Scan(...any) error }) (NewsletterSubscription, error) {
	var i NewsletterSubscription
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.Status,
		&i.Source,
		&i.SubscribedAt,
		&i.UnsubscribedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// The conflict branch reactivates an existing address instead of inserting a
// second row. subscribed_at only moves when the row was unsubscribed.
const upsertNewsletterSubscription = `-- name: UpsertNewsletterSubscription :one
INSERT INTO newsletter_subscriptions (id, email, name, status, source, subscribed_at, unsubscribed_at, created_at, updated_at)
VALUES (?1, ?2, ?3, 'ACTIVE', ?4, ?5, NULL, ?5, ?5)
ON CONFLICT (email) DO UPDATE SET
    name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE newsletter_subscriptions.name END,
    source = CASE WHEN excluded.source <> '' THEN excluded.source ELSE newsletter_subscriptions.source END,
    subscribed_at = CASE WHEN newsletter_subscriptions.status = 'ACTIVE'
        THEN newsletter_subscriptions.subscribed_at ELSE excluded.subscribed_at END,
    status = 'ACTIVE',
    unsubscribed_at = NULL,
    updated_at = excluded.updated_at
RETURNING ` + newsletterColumns

type UpsertNewsletterSubscriptionParams struct {
	ID     string
	Email  string
	Name   string
	Source string
	At     time.Time
}

func (q *Queries) UpsertNewsletterSubscription(ctx context.Context, arg UpsertNewsletterSubscriptionParams) (NewsletterSubscription, error) {
	row := q.db.QueryRowContext(ctx, upsertNewsletterSubscription,
		arg.ID,
		arg.Email,
		arg.Name,
		arg.Source,
		arg.At,
	)
	return scanNewsletterSubscription(row)
}

const unsubscribeNewsletter = `-- name: UnsubscribeNewsletter :execrows
UPDATE newsletter_subscriptions
SET status = 'UNSUBSCRIBED', unsubscribed_at = ?1, updated_at = ?1
WHERE email = ?2 AND status = 'ACTIVE'`

func (q *Queries) UnsubscribeNewsletter(ctx context.Context, email string, at time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, unsubscribeNewsletter, at, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getNewsletterSubscriptionByEmail = `-- name: GetNewsletterSubscriptionByEmail :one
SELECT ` + newsletterColumns + ` FROM newsletter_subscriptions WHERE email = ?`

func (q *Queries) GetNewsletterSubscriptionByEmail(ctx context.Context, email string) (NewsletterSubscription, error) {
	return scanNewsletterSubscription(q.db.QueryRowContext(ctx, getNewsletterSubscriptionByEmail, email))
}

const listNewsletterSubscriptions = `-- name: ListNewsletterSubscriptions :many
SELECT ` + newsletterColumns + ` FROM newsletter_subscriptions
WHERE (?1 = '' OR status = ?1)
ORDER BY subscribed_at DESC
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListNewsletterSubscriptions(ctx context.Context, arg ListParams) ([]NewsletterSubscription, error) {
	rows, err := q.db.QueryContext(ctx, listNewsletterSubscriptions, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []NewsletterSubscription
	for rows.Next() {
		i, err := scanNewsletterSubscription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countNewsletterSubscriptions = `-- name: CountNewsletterSubscriptions :one
SELECT COUNT(*) FROM newsletter_subscriptions WHERE (?1 = '' OR status = ?1)`

func (q *Queries) CountNewsletterSubscriptions(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNewsletterSubscriptions, status).Scan(&count)
	return count, err
}

// Custom package requests

const customPackageColumns = `id, user_id, name, email, phone, destinations, start_date, end_date,
	travellers, budget, notes, status, created_at, updated_at`

func scanCustomPackageRequest(row interface{ Scan(...any) error }) (CustomPackageRequest, error) {
	var i CustomPackageRequest
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.Destinations,
		&i.StartDate,
		&i.EndDate,
		&i.Travellers,
		&i.Budget,
		&i.Notes,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createCustomPackageRequest = `-- name: CreateCustomPackageRequest :one
INSERT INTO custom_package_requests (id, user_id, name, email, phone, destinations, start_date, end_date,
    travellers, budget, notes, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'PENDING', ?, ?)
RETURNING ` + customPackageColumns

type CreateCustomPackageRequestParams struct {
	ID           string
	UserID       int64
	Name         string
	Email        string
	Phone        string
	Destinations string
	StartDate    string
	EndDate      string
	Travellers   int64
	Budget       string
	Notes        string
	CreatedAt    time.Time
}

func (q *Queries) CreateCustomPackageRequest(ctx context.Context, arg CreateCustomPackageRequestParams) (CustomPackageRequest, error) {
	row := q.db.QueryRowContext(ctx, createCustomPackageRequest,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Destinations,
		arg.StartDate,
		arg.EndDate,
		arg.Travellers,
		arg.Budget,
		arg.Notes,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanCustomPackageRequest(row)
}

const getCustomPackageRequest = `-- name: GetCustomPackageRequest :one
SELECT ` + customPackageColumns + ` FROM custom_package_requests WHERE id = ?`

func (q *Queries) GetCustomPackageRequest(ctx context.Context, id string) (CustomPackageRequest, error) {
	return scanCustomPackageRequest(q.db.QueryRowContext(ctx, getCustomPackageRequest, id))
}

const listCustomPackageRequests = `-- name: ListCustomPackageRequests :many
SELECT ` + customPackageColumns + ` FROM custom_package_requests
WHERE (?1 = '' OR status = ?1)
ORDER BY created_at DESC
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListCustomPackageRequests(ctx context.Context, arg ListParams) ([]CustomPackageRequest, error) {
	rows, err := q.db.QueryContext(ctx, listCustomPackageRequests, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CustomPackageRequest
	for rows.Next() {
		i, err := scanCustomPackageRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countCustomPackageRequests = `-- name: CountCustomPackageRequests :one
SELECT COUNT(*) FROM custom_package_requests WHERE (?1 = '' OR status = ?1)`

func (q *Queries) CountCustomPackageRequests(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCustomPackageRequests, status).Scan(&count)
	return count, err
}

const updateCustomPackageRequestStatus = `-- name: UpdateCustomPackageRequestStatus :one
UPDATE custom_package_requests SET status = ?, updated_at = ? WHERE id = ?
RETURNING ` + customPackageColumns

func (q *Queries) UpdateCustomPackageRequestStatus(ctx context.Context, id, status string, at time.Time) (CustomPackageRequest, error) {
	return scanCustomPackageRequest(q.db.QueryRowContext(ctx, updateCustomPackageRequestStatus, status, at, id))
}

// Bookings

const bookingColumns = `id, package_id, user_id, name, email, phone, travel_date, travellers, notes, status, ip_address, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var i Booking
	err := row.Scan(
		&i.ID,
		&i.PackageID,
		&i.UserID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.TravelDate,
		&i.Travellers,
		&i.Notes,
		&i.Status,
		&i.IpAddress,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createBooking = `-- name: CreateBooking :one
INSERT INTO bookings (id, package_id, user_id, name, email, phone, travel_date, travellers, notes, status, ip_address, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'PENDING', ?, ?, ?)
RETURNING ` + bookingColumns

type CreateBookingParams struct {
	ID         string
	PackageID  int64
	UserID     sql.NullInt64
	Name       string
	Email      string
	Phone      string
	TravelDate string
	Travellers int64
	Notes      string
	IpAddress  string
	CreatedAt  time.Time
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, createBooking,
		arg.ID,
		arg.PackageID,
		arg.UserID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.TravelDate,
		arg.Travellers,
		arg.Notes,
		arg.IpAddress,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanBooking(row)
}

const getBooking = `-- name: GetBooking :one
SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

func (q *Queries) GetBooking(ctx context.Context, id string) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, getBooking, id))
}

const listBookings = `-- name: ListBookings :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE (?1 = '' OR status = ?1)
ORDER BY created_at DESC
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListBookings(ctx context.Context, arg ListParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listBookings, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Booking
	for rows.Next() {
		i, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countBookings = `-- name: CountBookings :one
SELECT COUNT(*) FROM bookings WHERE (?1 = '' OR status = ?1)`

func (q *Queries) CountBookings(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countBookings, status).Scan(&count)
	return count, err
}

const updateBookingStatus = `-- name: UpdateBookingStatus :one
UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?
RETURNING ` + bookingColumns

func (q *Queries) UpdateBookingStatus(ctx context.Context, id, status string, at time.Time) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, updateBookingStatus, status, at, id))
}

const deleteBooking = `-- name: DeleteBooking :execrows
DELETE FROM bookings WHERE id = ?`

func (q *Queries) DeleteBooking(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBooking, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
