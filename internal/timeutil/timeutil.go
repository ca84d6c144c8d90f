// Package timeutil implements the minute-of-day arithmetic behind derived
// schedule times. All functions are pure; the day boundary itself is not
// tracked, so a subtraction that crosses midnight yields a valid "HH:MM" on
// the previous day and callers must not assume continuity for chained
// computations.
package timeutil

import (
	"fmt"

	"ttalarm/internal/domain"
)

const minutesPerDay = 24 * 60

// HourMinute is a parsed wall-clock time of day.
type HourMinute struct {
	Hour   int
	Minute int
}

// Parse parses an "HH:MM" string. Malformed input is rejected with
// domain.ErrValidation so a bad write can never poison the derived times.
func Parse(s string) (HourMinute, error) {
	var hm HourMinute
	if n, err := fmt.Sscanf(s, "%d:%d", &hm.Hour, &hm.Minute); n != 2 || err != nil {
		return HourMinute{}, fmt.Errorf("%w: invalid time %q, want HH:MM", domain.ErrValidation, s)
	}
	if hm.Hour < 0 || hm.Hour > 23 || hm.Minute < 0 || hm.Minute > 59 {
		return HourMinute{}, fmt.Errorf("%w: time %q out of range", domain.ErrValidation, s)
	}
	return hm, nil
}

// Format renders an HourMinute back to "HH:MM" with zero padding.
func Format(hm HourMinute) string {
	return fmt.Sprintf("%02d:%02d", hm.Hour, hm.Minute)
}

// AddMinutes adds n minutes to an "HH:MM" string, wrapping modulo 24h.
func AddMinutes(s string, n int) (string, error) {
	hm, err := Parse(s)
	if err != nil {
		return "", err
	}
	total := ((hm.Hour*60+hm.Minute+n)%minutesPerDay + minutesPerDay) % minutesPerDay
	return Format(HourMinute{Hour: total / 60, Minute: total % 60}), nil
}

// SubtractMinutes subtracts n minutes from an "HH:MM" string. Negative
// results wrap to the previous day.
func SubtractMinutes(s string, n int) (string, error) {
	return AddMinutes(s, -n)
}

// DerivedTimes is the output of ComputeDerivedTimes.
type DerivedTimes struct {
	Departure        string
	PreparationStart string
}

// ComputeDerivedTimes computes the departure and preparation-start times:
//
//	departure        = arrival − travelMinutes
//	preparationStart = departure − prepMinutes
//
// Pure and deterministic; identical inputs always yield identical outputs.
func ComputeDerivedTimes(arrival string, travelMinutes, prepMinutes int) (DerivedTimes, error) {
	departure, err := SubtractMinutes(arrival, travelMinutes)
	if err != nil {
		return DerivedTimes{}, err
	}
	prepStart, err := SubtractMinutes(departure, prepMinutes)
	if err != nil {
		return DerivedTimes{}, err
	}
	return DerivedTimes{Departure: departure, PreparationStart: prepStart}, nil
}
