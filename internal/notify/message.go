package notify

import (
	"fmt"

	"ttalarm/internal/domain"
)

// transportLabels maps transport types to their display labels.
var transportLabels = map[domain.TransportType]string{
	domain.TransportSubway:  "지하철",
	domain.TransportBus:     "버스",
	domain.TransportCar:     "자동차",
	domain.TransportBicycle: "자전거",
	domain.TransportWalk:    "도보",
}

// momentTitles maps alarm moments to notification titles.
var momentTitles = map[domain.AlarmMoment]string{
	domain.MomentPreparation:        "preparation alarm",
	domain.MomentDeparture:          "departure alarm",
	domain.MomentAdvance:            "advance notice",
	domain.MomentPreparationAdvance: "preparation advance notice",
}

// TransportLabel returns the display label for a transport type, falling back
// to the raw value for anything unknown.
func TransportLabel(t domain.TransportType) string {
	if label, ok := transportLabels[t]; ok {
		return label
	}
	return string(t)
}

// TitleFor returns the notification title for an alarm moment.
func TitleFor(moment domain.AlarmMoment) string {
	if title, ok := momentTitles[moment]; ok {
		return title
	}
	return "alarm"
}

// BuildMessage formats the notification body for a schedule and moment:
// destination, moment-specific action, the relevant time, and the transport
// label. The memo is appended only for the two primary moments — advance
// reminders stay short.
func BuildMessage(sched domain.Schedule, moment domain.AlarmMoment) string {
	var t, action string
	switch moment {
	case domain.MomentPreparation:
		t = sched.PreparationStartTime
		action = "start preparing"
	case domain.MomentDeparture:
		t = sched.DepartureTime
		action = "time to leave"
	case domain.MomentAdvance:
		t = sched.DepartureTime
		minutes := 0
		if sched.AdvanceAlarm != nil {
			minutes = sched.AdvanceAlarm.Minutes
		}
		action = fmt.Sprintf("leaving in %d minutes", minutes)
	case domain.MomentPreparationAdvance:
		t = sched.PreparationStartTime
		minutes := 0
		if sched.PreparationAdvanceAlarm != nil {
			minutes = sched.PreparationAdvanceAlarm.Minutes
		}
		action = fmt.Sprintf("preparation starts in %d minutes", minutes)
	}

	msg := fmt.Sprintf("⏰ %s %s!\ntime: %s\nmode: %s",
		sched.Destination, action, t, TransportLabel(sched.TransportType))

	if moment != domain.MomentAdvance && moment != domain.MomentPreparationAdvance && sched.Memo != "" {
		msg += fmt.Sprintf("\n\n📝 memo: %s", sched.Memo)
	}
	return msg
}

// Presenter adapts the package-level formatting functions to the interface
// the background relay consumes.
type Presenter struct{}

// TitleFor implements relay.Presenter.
func (Presenter) TitleFor(moment domain.AlarmMoment) string { return TitleFor(moment) }

// BuildMessage implements relay.Presenter.
func (Presenter) BuildMessage(sched domain.Schedule, moment domain.AlarmMoment) string {
	return BuildMessage(sched, moment)
}

// Tag returns the stable notification tag for a (scheduleID, moment) pair so
// repeated fires for the same pair collapse instead of stacking — whether the
// duplicate comes from a re-fire or from the foreground scheduler and the
// background relay both being alive.
func Tag(scheduleID string, moment domain.AlarmMoment) string {
	return fmt.Sprintf("%s-%s", scheduleID, moment)
}
