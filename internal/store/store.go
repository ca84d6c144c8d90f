// Package store holds the in-memory schedule collection. There is no
// persistence layer: state lives for the process lifetime only.
//
// The store is the only writer of Schedule records. Every mutating operation
// that touches a timing-relevant field re-derives DepartureTime and
// PreparationStartTime from the arrival time, the travel-duration table, and
// the preparation buffer before committing, so derived times are always
// internally consistent. After each mutation the store emits an immutable
// snapshot of the full collection to its subscribers (the alarm scheduler and
// the background relay feeder).
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ttalarm/internal/domain"
	"ttalarm/internal/timeutil"
	"ttalarm/internal/traffic"
)

// Input carries the user-editable fields of a schedule. Derived times are
// intentionally absent: they are computed, never accepted.
type Input struct {
	Origin                  string               `json:"origin"`
	Destination             string               `json:"destination"`
	ArrivalTime             string               `json:"arrivalTime"`
	TransportType           domain.TransportType `json:"transportType"`
	PreparationTime         int                  `json:"preparationTime"`
	Weekdays                []domain.Weekday     `json:"weekdays,omitempty"`
	SelectedDates           []string             `json:"selectedDates,omitempty"`
	AdvanceAlarm            *domain.AdvanceAlarm `json:"advanceAlarm,omitempty"`
	PreparationAdvanceAlarm *domain.AdvanceAlarm `json:"preparationAdvanceAlarm,omitempty"`
	Memo                    string               `json:"memo,omitempty"`
}

// Subscriber receives a snapshot of the full collection after every mutation.
type Subscriber func(schedules []domain.Schedule)

// Store is the mutex-guarded in-memory schedule collection.
type Store struct {
	mu            sync.Mutex
	schedules     []domain.Schedule
	table         *traffic.Table
	defaultOrigin string
	subscribers   []Subscriber
	now           func() time.Time
}

// New constructs a Store deriving travel durations from table. Schedules
// created without an origin fall back to defaultOrigin, matching the single
// implicit origin of the mock traffic data.
func New(table *traffic.Table, defaultOrigin string) *Store {
	return &Store{
		table:         table,
		defaultOrigin: defaultOrigin,
		now:           time.Now,
	}
}

// Subscribe registers fn to be called with a fresh snapshot after every
// mutation. Subscribers are invoked outside the store lock, in registration
// order.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// List returns a snapshot of all schedules in insertion order.
func (s *Store) List() []domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns a single schedule by ID.
func (s *Store) Get(id uuid.UUID) (domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			return cloneSchedule(s.schedules[i]), nil
		}
	}
	return domain.Schedule{}, fmt.Errorf("store.Store.Get: %w", domain.ErrNotFound)
}

// Add validates the input, derives the departure and preparation-start times,
// and appends a new active schedule with a fresh UUID.
func (s *Store) Add(in Input) (domain.Schedule, error) {
	if err := validateInput(in); err != nil {
		return domain.Schedule{}, err
	}

	sched := domain.Schedule{
		ID:        uuid.New(),
		IsActive:  true,
		CreatedAt: s.now(),
	}
	applyInput(&sched, in, s.defaultOrigin)
	if err := s.derive(&sched); err != nil {
		return domain.Schedule{}, err
	}

	s.mu.Lock()
	s.schedules = append(s.schedules, sched)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return cloneSchedule(sched), nil
}

// Update replaces the editable fields of an existing schedule and re-derives
// its times. ID, IsActive and CreatedAt are preserved.
func (s *Store) Update(id uuid.UUID, in Input) (domain.Schedule, error) {
	if err := validateInput(in); err != nil {
		return domain.Schedule{}, err
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Schedule{}, fmt.Errorf("store.Store.Update: %w", domain.ErrNotFound)
	}
	updated := s.schedules[idx]
	applyInput(&updated, in, s.defaultOrigin)
	if err := s.derive(&updated); err != nil {
		s.mu.Unlock()
		return domain.Schedule{}, err
	}
	s.schedules[idx] = updated
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return cloneSchedule(updated), nil
}

// Delete removes a schedule by ID.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("store.Store.Delete: %w", domain.ErrNotFound)
	}
	s.schedules = append(s.schedules[:idx], s.schedules[idx+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

// ToggleActive flips the IsActive flag of one schedule.
func (s *Store) ToggleActive(id uuid.UUID) (domain.Schedule, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Schedule{}, fmt.Errorf("store.Store.ToggleActive: %w", domain.ErrNotFound)
	}
	s.schedules[idx].IsActive = !s.schedules[idx].IsActive
	toggled := cloneSchedule(s.schedules[idx])
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return toggled, nil
}

// ToggleGroupActive sets IsActive on every schedule whose ID is in ids.
// Unknown IDs are skipped; the count of schedules actually changed is
// returned.
func (s *Store) ToggleGroupActive(ids []uuid.UUID, active bool) int {
	s.mu.Lock()
	changed := 0
	for _, id := range ids {
		if idx := s.indexLocked(id); idx >= 0 {
			s.schedules[idx].IsActive = active
			changed++
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed > 0 {
		s.publish(snap)
	}
	return changed
}

// DeleteGroup removes every schedule whose ID is in ids, skipping unknown
// IDs, and returns the count removed.
func (s *Store) DeleteGroup(ids []uuid.UUID) int {
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.schedules[:0]
	removed := 0
	for _, sched := range s.schedules {
		if drop[sched.ID] {
			removed++
			continue
		}
		kept = append(kept, sched)
	}
	s.schedules = kept
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if removed > 0 {
		s.publish(snap)
	}
	return removed
}

// derive recomputes the two derived times from the arrival time, the travel
// duration lookup, and the preparation buffer. A route the table does not
// know yields the default duration, so derivation never fails for a valid
// arrival time.
func (s *Store) derive(sched *domain.Schedule) error {
	hm, err := timeutil.Parse(sched.ArrivalTime)
	if err != nil {
		return err
	}
	duration := s.table.Duration(sched.Origin, sched.Destination, sched.TransportType, hm.Hour)
	derived, err := timeutil.ComputeDerivedTimes(sched.ArrivalTime, duration, sched.PreparationTime)
	if err != nil {
		return err
	}
	sched.DepartureTime = derived.Departure
	sched.PreparationStartTime = derived.PreparationStart
	return nil
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []domain.Schedule {
	snap := make([]domain.Schedule, len(s.schedules))
	for i := range s.schedules {
		snap[i] = cloneSchedule(s.schedules[i])
	}
	return snap
}

func (s *Store) publish(snap []domain.Schedule) {
	s.mu.Lock()
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// applyInput copies the editable fields onto sched, filling the default
// origin when none is given.
func applyInput(sched *domain.Schedule, in Input, defaultOrigin string) {
	sched.Origin = strings.TrimSpace(in.Origin)
	if sched.Origin == "" {
		sched.Origin = defaultOrigin
	}
	sched.Destination = strings.TrimSpace(in.Destination)
	sched.ArrivalTime = in.ArrivalTime
	sched.TransportType = in.TransportType
	sched.PreparationTime = in.PreparationTime
	sched.Weekdays = append([]domain.Weekday(nil), in.Weekdays...)
	sched.SelectedDates = append([]string(nil), in.SelectedDates...)
	sched.AdvanceAlarm = cloneAdvance(in.AdvanceAlarm)
	sched.PreparationAdvanceAlarm = cloneAdvance(in.PreparationAdvanceAlarm)
	sched.Memo = in.Memo
}

// validateInput enforces business rules common to Add and Update.
func validateInput(in Input) error {
	if strings.TrimSpace(in.Destination) == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	if _, err := timeutil.Parse(in.ArrivalTime); err != nil {
		return err
	}
	if !in.TransportType.Valid() {
		return fmt.Errorf("%w: unknown transport type %q", domain.ErrValidation, in.TransportType)
	}
	if in.PreparationTime < 0 {
		return fmt.Errorf("%w: preparation time must not be negative", domain.ErrValidation)
	}
	if len(in.Weekdays) > 0 && len(in.SelectedDates) > 0 {
		return fmt.Errorf("%w: weekdays and selectedDates are mutually exclusive", domain.ErrValidation)
	}
	for _, d := range in.SelectedDates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", domain.ErrValidation, d)
		}
	}
	for _, a := range []*domain.AdvanceAlarm{in.AdvanceAlarm, in.PreparationAdvanceAlarm} {
		if a != nil && a.Enabled && a.Minutes <= 0 {
			return fmt.Errorf("%w: advance alarm minutes must be positive", domain.ErrValidation)
		}
	}
	return nil
}

func cloneAdvance(a *domain.AdvanceAlarm) *domain.AdvanceAlarm {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func cloneSchedule(sched domain.Schedule) domain.Schedule {
	c := sched
	c.Weekdays = append([]domain.Weekday(nil), sched.Weekdays...)
	c.SelectedDates = append([]string(nil), sched.SelectedDates...)
	c.AdvanceAlarm = cloneAdvance(sched.AdvanceAlarm)
	c.PreparationAdvanceAlarm = cloneAdvance(sched.PreparationAdvanceAlarm)
	return c
}
