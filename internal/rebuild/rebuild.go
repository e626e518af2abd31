// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rebuild notifies the static site builder that published content
// changed. Bursts of triggers are coalesced into a single signed POST.
package rebuild

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/voyage-cms/internal/model"
)

// Header names sent with every hook request.
const (
	SignatureHeader = "X-Rebuild-Signature"
	UserAgent       = "voyage-cms/1.0"
)

// Config holds hook configuration.
type Config struct {
	URL    string
	Secret string

	// Interval is the quiet period after the last trigger before sending.
	Interval time.Duration
	// MaxWait bounds how long a burst of triggers can postpone the send.
	MaxWait time.Duration
	// Timeout applies to each POST.
	Timeout time.Duration
}

// DefaultConfig returns the default debounce timings for url.
func DefaultConfig(url, secret string) Config {
	return Config{
		URL:      url,
		Secret:   secret,
		Interval: 1 * time.Second,
		MaxWait:  5 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// Payload is the JSON body posted to the hook.
type Payload struct {
	Reason      string    `json:"reason"`
	Sections    []string  `json:"sections"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Hook debounces rebuild triggers and posts them to the configured URL.
// A Hook without a URL accepts triggers and does nothing.
type Hook struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu        sync.Mutex
	timer     *time.Timer
	firstSeen time.Time
	reasons   []string
	sections  map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a hook.
func New(cfg Config, logger *slog.Logger) *Hook {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxWait < cfg.Interval {
		cfg.MaxWait = cfg.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hook{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		sections: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enabled reports whether a hook URL is configured.
func (h *Hook) Enabled() bool {
	return h.cfg.URL != ""
}

// Trigger schedules a rebuild. It never blocks on the network.
func (h *Hook) Trigger(reason string, sections ...string) {
	if !h.Enabled() {
		return
	}

	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.reasons = append(h.reasons, reason)
	for _, s := range sections {
		h.sections[s] = struct{}{}
	}

	if h.timer == nil {
		h.firstSeen = now
		h.timer = time.AfterFunc(h.cfg.Interval, func() {
			h.mu.Lock()
			h.sendLocked()
			h.mu.Unlock()
		})
		h.logger.Debug("rebuild queued", "reason", reason)
		return
	}

	if now.Sub(h.firstSeen) >= h.cfg.MaxWait {
		h.sendLocked()
		return
	}
	h.timer.Reset(h.cfg.Interval)
}

// sendLocked posts the pending trigger asynchronously. Must be called with mu held.
func (h *Hook) sendLocked() {
	if h.timer == nil {
		return
	}
	h.timer.Stop()
	h.timer = nil

	payload := Payload{
		Reason:      strings.Join(h.reasons, "; "),
		Sections:    make([]string, 0, len(h.sections)),
		TriggeredAt: time.Now().UTC(),
	}
	for s := range h.sections {
		payload.Sections = append(payload.Sections, s)
	}
	sort.Strings(payload.Sections)

	h.reasons = nil
	h.sections = make(map[string]struct{})

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.post(h.ctx, payload); err != nil {
			h.logger.Warn("rebuild hook failed",
				"category", model.EventCategorySystem,
				"error", err,
				"reason", payload.Reason)
			return
		}
		h.logger.Info("rebuild hook delivered", "sections", payload.Sections)
	}()
}

func (h *Hook) post(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if h.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, h.cfg.Secret))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

// Flush sends any pending trigger immediately.
func (h *Hook) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked()
}

// Stop flushes the pending trigger and waits for in-flight requests.
func (h *Hook) Stop() {
	h.Flush()
	h.wg.Wait()
	h.cancel()
}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign.
func Verify(body []byte, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(body, secret)))
}
