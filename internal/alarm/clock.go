// Package alarm implements the alarm-scheduling core: the pure next-alarm-time
// computation, the armed-pair engine shared by the foreground scheduler and
// the background relay, and the foreground Scheduler itself.
package alarm

import "time"

// Clock abstracts "now" and timer creation so the engine is context-agnostic:
// the foreground scheduler and the background relay inject the same system
// clock in production, and tests inject a fake that fires deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable pending deadline callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing.
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns the wall-clock backed Clock.
func SystemClock() Clock { return systemClock{} }
