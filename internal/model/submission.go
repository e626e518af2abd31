// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Contact inquiry statuses.
const (
	InquiryNew        = "NEW"
	InquiryInProgress = "IN_PROGRESS"
	InquiryResolved   = "RESOLVED"
)

// Newsletter subscription statuses.
const (
	SubscriptionActive       = "ACTIVE"
	SubscriptionUnsubscribed = "UNSUBSCRIBED"
)

// Custom package request statuses.
const (
	RequestPending = "PENDING"
	RequestQuoted  = "QUOTED"
	RequestClosed  = "CLOSED"
)

// Booking statuses.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingCompleted = "COMPLETED"
)

// InquiryStatuses lists every valid contact inquiry status.
var InquiryStatuses = []string{InquiryNew, InquiryInProgress, InquiryResolved}

// RequestStatuses lists every valid custom package request status.
var RequestStatuses = []string{RequestPending, RequestQuoted, RequestClosed}

// BookingStatuses lists every valid booking status.
var BookingStatuses = []string{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted}

// Notification outbox statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationDead    = "dead"
)
