package alarm

import (
	"time"

	"ttalarm/internal/domain"
	"ttalarm/internal/timeutil"
)

// Instants holds the computed next-fire instant per alarm moment. A nil entry
// means the moment does not fire today (inactive schedule, moment disabled,
// or instant already passed).
type Instants struct {
	Preparation        *time.Time
	Departure          *time.Time
	Advance            *time.Time
	PreparationAdvance *time.Time
}

// ForEach calls fn for every non-nil instant.
func (i Instants) ForEach(fn func(moment domain.AlarmMoment, at time.Time)) {
	if i.Preparation != nil {
		fn(domain.MomentPreparation, *i.Preparation)
	}
	if i.Departure != nil {
		fn(domain.MomentDeparture, *i.Departure)
	}
	if i.Advance != nil {
		fn(domain.MomentAdvance, *i.Advance)
	}
	if i.PreparationAdvance != nil {
		fn(domain.MomentPreparationAdvance, *i.PreparationAdvance)
	}
}

// IsActiveToday reports whether the schedule should fire on the calendar day
// of now. One-time schedules match on the calendar date (not the instant),
// recurring ones on the weekday tag. A schedule with neither weekdays nor
// selected dates never fires.
func IsActiveToday(sched domain.Schedule, now time.Time) bool {
	if !sched.IsActive {
		return false
	}
	if len(sched.SelectedDates) > 0 {
		today := now.Format("2006-01-02")
		for _, d := range sched.SelectedDates {
			if d == today {
				return true
			}
		}
		return false
	}
	if len(sched.Weekdays) > 0 {
		today := domain.WeekdayOf(now.Weekday())
		for _, d := range sched.Weekdays {
			if d == today {
				return true
			}
		}
	}
	return false
}

// NextAlarmTimes computes the four candidate instants for today. It never
// looks ahead across days: a moment that already passed stays nil until a
// later reconciliation (the midnight tick) re-runs this for the new day.
//
// An advance instant is derived only from a still-future base instant, so a
// reminder "leaving in N minutes" can never fire after the departure moment
// itself has passed.
func NextAlarmTimes(sched domain.Schedule, now time.Time) Instants {
	if !IsActiveToday(sched, now) {
		return Instants{}
	}

	prep := todayAt(sched.PreparationStartTime, now)
	dep := todayAt(sched.DepartureTime, now)

	var inst Instants
	inst.Preparation = futureOrNil(prep, now)
	inst.Departure = futureOrNil(dep, now)

	if inst.Departure != nil && advanceEnabled(sched.AdvanceAlarm) {
		adv := dep.Add(-time.Duration(sched.AdvanceAlarm.Minutes) * time.Minute)
		inst.Advance = futureOrNil(adv, now)
	}
	if inst.Preparation != nil && advanceEnabled(sched.PreparationAdvanceAlarm) {
		adv := prep.Add(-time.Duration(sched.PreparationAdvanceAlarm.Minutes) * time.Minute)
		inst.PreparationAdvance = futureOrNil(adv, now)
	}
	return inst
}

func advanceEnabled(a *domain.AdvanceAlarm) bool {
	return a != nil && a.Enabled && a.Minutes > 0
}

// todayAt places an "HH:MM" string on the calendar day of now, in now's
// location. A malformed stored time yields the zero time, which is never
// strictly in the future relative to any real now.
func todayAt(hhmm string, now time.Time) time.Time {
	hm, err := timeutil.Parse(hhmm)
	if err != nil {
		return time.Time{}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hm.Hour, hm.Minute, 0, 0, now.Location())
}

// futureOrNil returns &t when t is strictly after now, else nil.
func futureOrNil(t time.Time, now time.Time) *time.Time {
	if t.After(now) {
		return &t
	}
	return nil
}
