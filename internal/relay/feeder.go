package relay

import (
	"time"

	"ttalarm/internal/alarm"
	"ttalarm/internal/domain"
)

// Feeder is the foreground side of the relay protocol: it translates a
// schedule-collection snapshot into CLEAR_ALL_ALARMS + SET_ALARM messages.
// Wire Sync to the store subscription alongside the foreground scheduler so
// both timer sets track the same collection.
type Feeder struct {
	relay *Relay
	clock alarm.Clock
}

// NewFeeder constructs a Feeder targeting r.
func NewFeeder(r *Relay, clock alarm.Clock) *Feeder {
	return &Feeder{relay: r, clock: clock}
}

// Sync clears every relay alarm and re-sends one SET_ALARM per non-nil
// instant of each active schedule. It reports whether the relay accepted the
// messages; false means the relay was unavailable and the caller keeps
// relying on its own foreground timers.
func (f *Feeder) Sync(schedules []domain.Schedule) bool {
	if !f.relay.Send(Message{Type: MsgClearAllAlarms}) {
		return false
	}

	now := f.clock.Now()
	ok := true
	for _, sched := range schedules {
		if !sched.IsActive {
			continue
		}
		id := sched.ID.String()
		alarm.NextAlarmTimes(sched, now).ForEach(func(moment domain.AlarmMoment, at time.Time) {
			if !f.relay.Send(Message{
				Type:       MsgSetAlarm,
				ScheduleID: id,
				AlarmTime:  at.UnixMilli(),
				AlarmType:  moment,
				Schedule:   sched,
			}) {
				ok = false
			}
		})
	}
	return ok
}
