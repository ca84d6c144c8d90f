// Package domain contains the core data types for the departure-alarm
// application. This package has zero external dependencies beyond uuid and is
// imported by every other internal package (store, alarm, notify, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransportType identifies how the user travels to the destination.
type TransportType string

const (
	TransportSubway  TransportType = "subway"
	TransportBus     TransportType = "bus"
	TransportCar     TransportType = "car"
	TransportBicycle TransportType = "bicycle"
	TransportWalk    TransportType = "walk"
)

// Valid reports whether t is one of the five known transport types.
func (t TransportType) Valid() bool {
	switch t {
	case TransportSubway, TransportBus, TransportCar, TransportBicycle, TransportWalk:
		return true
	}
	return false
}

// Weekday is a lowercase English weekday name ("sunday" .. "saturday"),
// matching the tags a recurring schedule carries.
type Weekday string

// WeekdayOf maps a time.Weekday to its schedule tag.
func WeekdayOf(d time.Weekday) Weekday {
	names := [...]Weekday{
		"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	}
	return names[d]
}

// AlarmMoment names one of the four trigger points a schedule can own.
type AlarmMoment string

const (
	MomentPreparation        AlarmMoment = "preparation"
	MomentDeparture          AlarmMoment = "departure"
	MomentAdvance            AlarmMoment = "advance"
	MomentPreparationAdvance AlarmMoment = "preparation-advance"
)

// AllMoments lists every alarm moment, in firing order for a typical schedule.
var AllMoments = []AlarmMoment{
	MomentPreparationAdvance,
	MomentPreparation,
	MomentAdvance,
	MomentDeparture,
}

// Valid reports whether m is one of the four known alarm moments.
func (m AlarmMoment) Valid() bool {
	switch m {
	case MomentPreparation, MomentDeparture, MomentAdvance, MomentPreparationAdvance:
		return true
	}
	return false
}

// AdvanceAlarm requests an extra reminder Minutes before its base moment.
type AdvanceAlarm struct {
	Enabled bool `json:"enabled"`
	Minutes int  `json:"minutes"`
}

// Schedule is the central entity: one destination with a target arrival time
// and the derived moments the user must act on.
//
// DepartureTime and PreparationStartTime are derived from ArrivalTime, the
// travel-duration lookup, and PreparationTime. They are recomputed by the
// store on every timing-relevant write and are never independently editable.
type Schedule struct {
	ID          uuid.UUID     `json:"id"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	// ArrivalTime is the target arrival wall-clock time, "HH:MM".
	ArrivalTime   string        `json:"arrivalTime"`
	TransportType TransportType `json:"transportType"`
	// PreparationTime is the buffer in minutes the user needs before departure.
	PreparationTime int `json:"preparationTime"`

	DepartureTime        string `json:"departureTime"`
	PreparationStartTime string `json:"preparationStartTime"`

	// Weekdays marks a recurring schedule; SelectedDates a one-time one.
	// Exactly one of the two being non-empty decides on which calendar days
	// the schedule is active. A schedule with neither never fires.
	Weekdays      []Weekday `json:"weekdays,omitempty"`
	SelectedDates []string  `json:"selectedDates,omitempty"` // "YYYY-MM-DD"

	IsActive bool `json:"isActive"`

	AdvanceAlarm            *AdvanceAlarm `json:"advanceAlarm,omitempty"`
	PreparationAdvanceAlarm *AdvanceAlarm `json:"preparationAdvanceAlarm,omitempty"`

	// Memo is appended to the bodies of the two primary (non-advance)
	// notifications.
	Memo string `json:"memo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
