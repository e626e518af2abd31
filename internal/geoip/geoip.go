// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves submitter addresses to ISO country codes using a
// MaxMind GeoLite2-Country database. A Locator without a database is valid
// and reports every address as unknown.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Locator looks up countries. It is safe for concurrent use.
type Locator struct {
	mu      sync.RWMutex
	reader  *maxminddb.Reader
	path    string
	modTime time.Time
}

// Open loads the database at path. An empty path returns a disabled
// Locator.
func Open(path string) (*Locator, error) {
	l := &Locator{path: path}
	if path == "" {
		return l, nil
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Locator) load() error {
	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("geoip database: %w", err)
	}

	reader, err := maxminddb.Open(l.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}

	if l.reader != nil {
		_ = l.reader.Close()
	}
	l.reader = reader
	l.modTime = info.ModTime()
	return nil
}

// Enabled reports whether a database is loaded.
func (l *Locator) Enabled() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reader != nil
}

// Country returns the ISO 3166-1 alpha-2 code for addr, or "" when the
// address is unparsable, not routable, or not in the database.
func (l *Locator) Country(addr string) string {
	if l == nil {
		return ""
	}
	ip := net.ParseIP(addr)
	if ip == nil || !routable(ip) {
		return ""
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.reader == nil {
		return ""
	}

	var rec countryRecord
	if err := l.reader.Lookup(ip, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Reload reopens the database when the file on disk changed since it was
// loaded. It reports whether a reload happened.
func (l *Locator) Reload() (bool, error) {
	if l == nil || l.path == "" {
		return false, nil
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return false, fmt.Errorf("geoip database: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !info.ModTime().After(l.modTime) {
		return false, nil
	}
	if err := l.load(); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the database.
func (l *Locator) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reader == nil {
		return nil
	}
	err := l.reader.Close()
	l.reader = nil
	return err
}

func routable(ip net.IP) bool {
	return !(ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() || ip.IsMulticast())
}
