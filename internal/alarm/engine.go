package alarm

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"ttalarm/internal/domain"
)

// Sink receives the notification side effect when an armed pair fires.
// The foreground scheduler plugs in the notification channel; the background
// relay plugs in its client broadcast.
type Sink interface {
	Fire(sched domain.Schedule, moment domain.AlarmMoment)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(sched domain.Schedule, moment domain.AlarmMoment)

// Fire calls f.
func (f SinkFunc) Fire(sched domain.Schedule, moment domain.AlarmMoment) { f(sched, moment) }

// PairKey identifies one (scheduleID, alarmMoment) combination.
type PairKey string

// NewPairKey builds the key for a schedule/moment pair.
func NewPairKey(scheduleID string, moment domain.AlarmMoment) PairKey {
	return PairKey(fmt.Sprintf("%s-%s", scheduleID, moment))
}

// ArmedPair describes one live pending timer, for introspection.
type ArmedPair struct {
	ScheduleID string             `json:"scheduleId"`
	Moment     domain.AlarmMoment `json:"alarmType"`
	At         time.Time          `json:"alarmTime"`
	Schedule   domain.Schedule    `json:"schedule"`
}

type armedEntry struct {
	timer      Timer
	at         time.Time
	scheduleID string
	moment     domain.AlarmMoment
	sched      domain.Schedule
}

// Engine owns the armed-pair table: at most one live timer per
// (scheduleID, moment) pair at any instant. Arming an already-armed pair
// first cancels the existing timer, so re-arming is idempotent. The table is
// owned by the Engine instance, never shared module state, so independent
// engines (foreground, relay, tests) cannot interfere with each other.
type Engine struct {
	mu    sync.Mutex
	clock Clock
	sink  Sink
	pairs map[PairKey]*armedEntry
}

// NewEngine constructs an Engine firing into sink on the given clock.
func NewEngine(clock Clock, sink Sink) *Engine {
	return &Engine{
		clock: clock,
		sink:  sink,
		pairs: make(map[PairKey]*armedEntry),
	}
}

// Arm registers a timer for the pair at the given instant, replacing any
// existing timer for the same pair. It reports whether a timer was armed:
// an instant not strictly in the future is a no-op.
func (e *Engine) Arm(scheduleID string, moment domain.AlarmMoment, at time.Time, sched domain.Schedule) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	delay := at.Sub(e.clock.Now())
	if delay <= 0 {
		return false
	}

	key := NewPairKey(scheduleID, moment)
	e.cancelLocked(key)

	entry := &armedEntry{at: at, scheduleID: scheduleID, moment: moment, sched: sched}
	entry.timer = e.clock.AfterFunc(delay, func() {
		e.fire(key, sched, moment)
	})
	e.pairs[key] = entry
	return true
}

// fire runs on timer expiry: the pair leaves the table (back to unarmed,
// eligible for re-arming on the next reconciliation) and the sink is invoked
// exactly once, outside the engine lock.
func (e *Engine) fire(key PairKey, sched domain.Schedule, moment domain.AlarmMoment) {
	e.mu.Lock()
	delete(e.pairs, key)
	e.mu.Unlock()

	e.sink.Fire(sched, moment)
}

// Cancel stops the timer for one pair. It reports whether a timer existed.
func (e *Engine) Cancel(scheduleID string, moment domain.AlarmMoment) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelLocked(NewPairKey(scheduleID, moment))
}

// CancelSchedule stops every armed timer belonging to the schedule and
// returns the count cancelled. After it returns, zero live timers reference
// the schedule ID.
func (e *Engine) CancelSchedule(scheduleID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, moment := range domain.AllMoments {
		if e.cancelLocked(NewPairKey(scheduleID, moment)) {
			n++
		}
	}
	return n
}

// CancelAll stops every armed timer and returns the count cancelled.
func (e *Engine) CancelAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.pairs)
	for key := range e.pairs {
		e.cancelLocked(key)
	}
	return n
}

func (e *Engine) cancelLocked(key PairKey) bool {
	entry, ok := e.pairs[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(e.pairs, key)
	return true
}

// ArmedCount returns the number of live pairs.
func (e *Engine) ArmedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pairs)
}

// Armed returns every live pair sorted by fire time ascending.
func (e *Engine) Armed() []ArmedPair {
	e.mu.Lock()
	out := make([]ArmedPair, 0, len(e.pairs))
	for _, entry := range e.pairs {
		out = append(out, ArmedPair{
			ScheduleID: entry.scheduleID,
			Moment:     entry.moment,
			At:         entry.at,
			Schedule:   entry.sched,
		})
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
