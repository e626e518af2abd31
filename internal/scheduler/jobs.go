// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Default retention periods.
const (
	DefaultEventRetention        = 90 * 24 * time.Hour
	DefaultNotificationRetention = 30 * 24 * time.Hour

	// globalLimiterMaxKeys is the size at which the per-client API limiter
	// table is cleared.
	globalLimiterMaxKeys = 10000
)

// Outbox is the notification outbox as seen by the scheduler.
type Outbox interface {
	Sweep(ctx context.Context) (int, error)
	Prune(ctx context.Context, age time.Duration) (int64, error)
}

// EventPruner deletes old event log rows.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) error
}

// Sweeper drops idle in-memory state, returning how many entries it removed.
type Sweeper interface {
	Sweep() int
}

// Pruner clears a keyed table once it exceeds maxKeys.
type Pruner interface {
	Prune(maxKeys int) bool
}

// Reloader reloads a file-backed resource when it changed on disk.
type Reloader interface {
	Reload() (bool, error)
}

// Maintenance lists the components that need periodic upkeep. Nil fields
// are skipped.
type Maintenance struct {
	Outbox        Outbox
	Events        EventPruner
	Sweepers      []Sweeper
	GlobalLimiter Pruner
	GeoIP         Reloader

	EventRetention        time.Duration
	NotificationRetention time.Duration

	Logger *slog.Logger
}

// Jobs returns the maintenance jobs for the configured components.
func (m Maintenance) Jobs() []Job {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	eventAge := m.EventRetention
	if eventAge <= 0 {
		eventAge = DefaultEventRetention
	}
	notificationAge := m.NotificationRetention
	if notificationAge <= 0 {
		notificationAge = DefaultNotificationRetention
	}

	var jobs []Job

	if m.Outbox != nil {
		jobs = append(jobs,
			Job{
				Name:        "outbox-sweep",
				Description: "Queue pending notifications whose retry time has passed",
				Schedule:    "* * * * *",
				Run: func(ctx context.Context) error {
					n, err := m.Outbox.Sweep(ctx)
					if n > 0 {
						logger.Info("requeued pending notifications", "count", n)
					}
					return err
				},
			},
			Job{
				Name:        "outbox-prune",
				Description: "Delete delivered notifications past retention",
				Schedule:    "30 3 * * *",
				Run: func(ctx context.Context) error {
					n, err := m.Outbox.Prune(ctx, notificationAge)
					if n > 0 {
						logger.Info("pruned delivered notifications", "count", n)
					}
					return err
				},
			},
		)
	}

	if m.Events != nil {
		jobs = append(jobs, Job{
			Name:        "events-prune",
			Description: "Delete event log entries past retention",
			Schedule:    "0 3 * * *",
			Run: func(ctx context.Context) error {
				return m.Events.DeleteOldEvents(ctx, eventAge)
			},
		})
	}

	if len(m.Sweepers) > 0 || m.GlobalLimiter != nil {
		jobs = append(jobs, Job{
			Name:        "limiter-sweep",
			Description: "Drop idle rate limit and lockout state",
			Schedule:    "*/5 * * * *",
			Run: func(context.Context) error {
				removed := 0
				for _, s := range m.Sweepers {
					removed += s.Sweep()
				}
				if m.GlobalLimiter != nil && m.GlobalLimiter.Prune(globalLimiterMaxKeys) {
					logger.Info("cleared API rate limiter table", "max_keys", globalLimiterMaxKeys)
				}
				if removed > 0 {
					logger.Debug("swept idle limiter entries", "count", removed)
				}
				return nil
			},
		})
	}

	if m.GeoIP != nil {
		jobs = append(jobs, Job{
			Name:        "geoip-reload",
			Description: "Reload the GeoIP database when the file changed",
			Schedule:    "0 4 * * *",
			Run: func(context.Context) error {
				reloaded, err := m.GeoIP.Reload()
				if reloaded {
					logger.Info("reloaded GeoIP database")
				}
				return err
			},
		})
	}

	return jobs
}

// AddAll registers every job, stopping at the first error.
func (s *Scheduler) AddAll(jobs []Job) error {
	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}
