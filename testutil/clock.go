// Package testutil provides shared helpers for tests. The fake clock lets
// timer-driven code (alarm engine, background relay) run deterministically:
// nothing fires until the test advances time explicitly.
package testutil

import (
	"sort"
	"sync"
	"time"

	"ttalarm/internal/alarm"
)

// FakeClock implements alarm.Clock with manually advanced time.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewFakeClock returns a FakeClock starting at the given instant.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers fn to run when the clock is advanced past d from now.
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) alarm.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Stop cancels the timer, reporting whether it had not yet fired.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	prevented := !t.fired && !t.stopped
	t.stopped = true
	return prevented
}

// Advance moves the clock forward by d, firing every due timer in deadline
// order. Callbacks run synchronously on the caller's goroutine, outside the
// clock lock, so they may arm new timers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

// nextDue pops the earliest unexpired timer that is due, marking it fired.
func (c *FakeClock) nextDue() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	due[0].fired = true
	return due[0]
}

// PendingTimers returns the count of registered timers that have neither
// fired nor been stopped.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
