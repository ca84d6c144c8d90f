package alarm

import (
	"log/slog"
	"sync"
	"time"

	"ttalarm/internal/domain"
)

// TestFireDelay is the fixed short delay used for manually requested test
// alarms instead of a computed deadline.
const TestFireDelay = 2 * time.Second

// Scheduler is the foreground adapter over Engine: it observes schedule
// collection snapshots and keeps the armed-pair table reconciled with them.
//
// Reconciliation is a full teardown-and-rebuild: cancel every armed pair,
// then arm the non-nil instants of every active schedule. Schedule changes
// are user-paced and the arming horizon is at most a day, so the table stays
// small and a diff is not worth its complexity.
type Scheduler struct {
	engine *Engine
	clock  Clock
	log    *slog.Logger

	// reconcileMu serializes reconciliation passes so a second snapshot
	// arriving mid-pass cannot interleave with a partial rebuild.
	reconcileMu sync.Mutex

	mu       sync.Mutex
	snapshot []domain.Schedule
}

// NewScheduler constructs a Scheduler firing into sink.
func NewScheduler(clock Clock, sink Sink, log *slog.Logger) *Scheduler {
	return &Scheduler{
		engine: NewEngine(clock, sink),
		clock:  clock,
		log:    log,
	}
}

// Reconcile replaces the armed-pair table with the pairs derived from the
// given snapshot. Safe to call from the store subscription and from the
// periodic midnight tick concurrently.
func (s *Scheduler) Reconcile(schedules []domain.Schedule) {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	s.mu.Lock()
	s.snapshot = schedules
	s.mu.Unlock()

	cancelled := s.engine.CancelAll()
	now := s.clock.Now()

	armed := 0
	for _, sched := range schedules {
		if !sched.IsActive {
			continue
		}
		id := sched.ID.String()
		NextAlarmTimes(sched, now).ForEach(func(moment domain.AlarmMoment, at time.Time) {
			if s.engine.Arm(id, moment, at, sched) {
				armed++
			}
		})
	}

	s.log.Debug("alarms reconciled",
		"schedules", len(schedules),
		"cancelled", cancelled,
		"armed", armed,
	)
}

// ReconcileNow re-runs reconciliation against the last observed snapshot.
// Wired to the midnight cron tick so recurring schedules re-arm for the new
// day without waiting for a user action.
func (s *Scheduler) ReconcileNow() {
	s.mu.Lock()
	snapshot := s.snapshot
	s.mu.Unlock()
	s.Reconcile(snapshot)
}

// TestFire arms a throwaway pair that fires after TestFireDelay, exercising
// the full timer → sink path without waiting for a real deadline. The pair
// key is suffixed so it can never collide with the schedule's real pairs.
func (s *Scheduler) TestFire(sched domain.Schedule, moment domain.AlarmMoment) {
	s.engine.Arm(sched.ID.String()+"-test", moment, s.clock.Now().Add(TestFireDelay), sched)
}

// Armed returns the live pairs sorted by fire time, for the upcoming-alarms
// listing.
func (s *Scheduler) Armed() []ArmedPair {
	return s.engine.Armed()
}

// ArmedCount returns the number of live pairs.
func (s *Scheduler) ArmedCount() int {
	return s.engine.ArmedCount()
}
