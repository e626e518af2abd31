// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLockout(maxFailures int) (*Lockout, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLockout(LockoutConfig{MaxFailures: maxFailures, Duration: time.Minute, Window: 10 * time.Minute})
	l.now = clock.now
	return l, clock
}

func TestNewLockout_Defaults(t *testing.T) {
	l := NewLockout(LockoutConfig{})
	if l.cfg != DefaultLockoutConfig() {
		t.Errorf("cfg = %+v, want defaults", l.cfg)
	}
}

func TestLockout_LocksAfterMaxFailures(t *testing.T) {
	l, clock := newTestLockout(3)

	for i := 0; i < 2; i++ {
		if d := l.Fail("editor@example.com"); d != 0 {
			t.Fatalf("failure %d locked for %v", i+1, d)
		}
	}
	if locked, _ := l.Locked("editor@example.com"); locked {
		t.Fatal("locked before reaching the limit")
	}

	if d := l.Fail("Editor@Example.com "); d != time.Minute {
		t.Fatalf("third failure lock = %v, want 1m", d)
	}
	locked, remaining := l.Locked("editor@example.com")
	if !locked || remaining != time.Minute {
		t.Fatalf("Locked = %v, %v", locked, remaining)
	}

	clock.advance(time.Minute + time.Second)
	if locked, _ := l.Locked("editor@example.com"); locked {
		t.Error("lock should expire")
	}
}

func TestLockout_Backoff(t *testing.T) {
	l, clock := newTestLockout(1)

	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}
	for i, w := range want {
		// A fresh window each round so the counter starts over.
		clock.advance(11 * time.Minute)
		l.Fail("a@example.com")
		clock.advance(time.Second)
		if d := l.Fail("a@example.com"); d != w {
			t.Errorf("lockout %d = %v, want %v", i+1, d, w)
		}
	}
}

func TestLockout_WindowReset(t *testing.T) {
	l, clock := newTestLockout(2)

	l.Fail("a@example.com")
	clock.advance(11 * time.Minute)
	if d := l.Fail("a@example.com"); d != 0 {
		t.Errorf("failure after window locked for %v", d)
	}
}

func TestLockout_SucceedClears(t *testing.T) {
	l, _ := newTestLockout(2)

	l.Fail("a@example.com")
	l.Succeed("a@example.com")
	if d := l.Fail("a@example.com"); d != 0 {
		t.Errorf("history should be cleared, got lock %v", d)
	}
}

func TestLockout_Sweep(t *testing.T) {
	l, clock := newTestLockout(5)

	l.Fail("old@example.com")
	clock.advance(11 * time.Minute)
	l.Fail("new@example.com")

	if n := l.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, ok := l.accounts["new@example.com"]; !ok {
		t.Error("recent entry should survive")
	}
}
