// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/olegiv/voyage-cms/internal/mail"
	"github.com/olegiv/voyage-cms/internal/model"
	"github.com/olegiv/voyage-cms/internal/store"
)

// Delivery configuration constants
const (
	MaxAttempts    = 5
	InitialBackoff = 30 * time.Second
	MaxBackoff     = time.Hour
	SendTimeout    = 30 * time.Second
	sweepBatch     = 100
)

// Config holds dispatcher configuration.
type Config struct {
	Workers   int // Number of concurrent delivery workers
	QueueSize int
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   3,
		QueueSize: 100,
	}
}

// Dispatcher delivers pending outbox rows through a mail.Sender.
type Dispatcher struct {
	queries *store.Queries
	sender  mail.Sender
	logger  *slog.Logger
	queue   chan string
	workers int
	now     func() time.Time

	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.Mutex
	running bool

	// inflight holds ids queued or being delivered so a sweep does not
	// hand the same row to two workers.
	inflight map[string]struct{}
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(db *sql.DB, sender mail.Sender, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries:  store.New(db),
		sender:   sender,
		logger:   logger,
		queue:    make(chan string, cfg.QueueSize),
		workers:  cfg.Workers,
		now:      func() time.Time { return time.Now().UTC() },
		inflight: make(map[string]struct{}),
	}
}

// Start starts the dispatcher workers. A stopped dispatcher can be
// started again.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.done = make(chan struct{})
	done := d.done
	d.mu.Unlock()

	d.logger.Info("starting notification dispatcher", "workers", d.workers)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i, done)
	}
}

// Stop stops the workers after their current delivery. Rows still queued
// are dropped from the queue; they stay pending in the database and are
// picked up by the next sweep.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	done := d.done
	d.mu.Unlock()

	d.logger.Info("stopping notification dispatcher")
	close(done)
	d.wg.Wait()

	d.mu.Lock()
	for drained := false; !drained; {
		select {
		case <-d.queue:
		default:
			drained = true
		}
	}
	d.inflight = make(map[string]struct{})
	d.mu.Unlock()

	d.logger.Info("notification dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int, done <-chan struct{}) {
	defer d.wg.Done()
	d.logger.Debug("notification worker started", "worker_id", id)

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case nid := <-d.queue:
			d.deliver(ctx, nid)
			d.mu.Lock()
			delete(d.inflight, nid)
			d.mu.Unlock()
		}
	}
}

// Notify queues rows for delivery without blocking. Rows that do not fit
// in the queue are left for the sweep.
func (d *Dispatcher) Notify(ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}

	for _, id := range ids {
		if _, ok := d.inflight[id]; ok {
			continue
		}
		select {
		case d.queue <- id:
			d.inflight[id] = struct{}{}
		default:
			d.logger.Debug("notification queue full, deferring to sweep", "id", id)
		}
	}
}

// Sweep queues every pending row whose retry time has passed, including
// rows left behind by a restart. It returns the number of rows found.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	due, err := d.queries.ListDueNotifications(ctx, d.now(), sweepBatch)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(due))
	for _, n := range due {
		ids = append(ids, n.ID)
	}
	d.Notify(ids...)
	return len(ids), nil
}

// Prune deletes sent rows older than the given age.
func (d *Dispatcher) Prune(ctx context.Context, age time.Duration) (int64, error) {
	return d.queries.DeleteSentNotifications(ctx, d.now().Add(-age))
}

// deliver attempts one delivery and records the outcome.
func (d *Dispatcher) deliver(ctx context.Context, id string) {
	n, err := d.queries.GetNotification(ctx, id)
	if err != nil {
		d.logger.Error("failed to load notification", "error", err, "id", id)
		return
	}
	if n.Status != model.NotificationPending {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, SendTimeout)
	sendErr := d.sender.Send(sendCtx, mail.Message{
		To:      n.Recipient,
		Subject: n.Subject,
		HTML:    n.HtmlBody,
		Text:    n.TextBody,
	})
	cancel()

	now := d.now()
	if sendErr == nil {
		if err := d.queries.MarkNotificationSent(ctx, id, now); err != nil {
			d.logger.Error("failed to mark notification sent", "error", err, "id", id)
			return
		}
		d.logger.Info("notification sent", "id", id, "kind", n.Kind)
		return
	}

	attempts := n.Attempts + 1
	params := store.MarkNotificationFailedParams{
		ID:        id,
		Status:    model.NotificationPending,
		Attempts:  attempts,
		LastError: sendErr.Error(),
		UpdatedAt: now,
	}

	if attempts >= MaxAttempts {
		params.Status = model.NotificationDead
		d.logger.Warn("notification marked as dead",
			"category", model.EventCategoryMail,
			"id", id,
			"kind", n.Kind,
			"attempts", attempts,
			"error", sendErr)
	} else {
		backoff := calculateBackoff(attempts)
		params.NextRetryAt = sql.NullTime{Time: now.Add(backoff), Valid: true}
		d.logger.Warn("notification delivery failed, will retry",
			"category", model.EventCategoryMail,
			"id", id,
			"kind", n.Kind,
			"attempt", attempts,
			"backoff", backoff.String(),
			"error", sendErr)
	}

	if err := d.queries.MarkNotificationFailed(ctx, params); err != nil {
		d.logger.Error("failed to record notification failure", "error", err, "id", id)
	}
}

// calculateBackoff returns InitialBackoff * 2^(attempt-1), capped at MaxBackoff.
func calculateBackoff(attempt int64) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	backoff := time.Duration(float64(InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}
