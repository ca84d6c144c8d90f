// Package traffic provides the static travel-duration lookup table: base
// minutes per origin/destination/transport plus a time-slot delay. The table
// is a fixed mock, not a live traffic feed; a YAML file can override the
// built-in defaults.
package traffic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"ttalarm/internal/domain"
)

// DefaultDuration is returned for any route the table does not know.
// A lookup miss degrades accuracy, never the derivation pipeline.
const DefaultDuration = 30

// TimeSlot buckets an hour of day for delay lookup.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"   // 06:00–11:59
	SlotAfternoon TimeSlot = "afternoon" // 12:00–17:59
	SlotEvening   TimeSlot = "evening"   // 18:00–21:59
	SlotNight     TimeSlot = "night"     // 22:00–05:59
)

// SlotOf returns the time slot the given hour falls into.
func SlotOf(hour int) TimeSlot {
	switch {
	case hour >= 6 && hour < 12:
		return SlotMorning
	case hour >= 12 && hour < 18:
		return SlotAfternoon
	case hour >= 18 && hour < 22:
		return SlotEvening
	default:
		return SlotNight
	}
}

// Table maps origin → destination → transport → base minutes, plus a
// time-slot delay per transport.
type Table struct {
	// Routes holds base travel minutes keyed by origin, destination, transport.
	Routes map[string]map[string]map[domain.TransportType]int `yaml:"routes"`
	// Delays holds extra minutes per time slot and transport.
	Delays map[TimeSlot]map[domain.TransportType]int `yaml:"delays"`
}

// Estimate is the full result of a lookup, including the delay breakdown.
type Estimate struct {
	From          string               `json:"from"`
	To            string               `json:"to"`
	TransportType domain.TransportType `json:"transportType"`
	TimeSlot      TimeSlot             `json:"timeSlot"`
	Duration      int                  `json:"duration"` // base + delay, minutes
	IsDelayed     bool                 `json:"isDelayed"`
}

// DefaultTable returns the built-in mock data: one well-known origin with a
// handful of destinations, and rush-hour delays per transport.
func DefaultTable() *Table {
	return &Table{
		Routes: map[string]map[string]map[domain.TransportType]int{
			"잠실 루터회관": {
				"행성대학교": {domain.TransportSubway: 50, domain.TransportBus: 65, domain.TransportWalk: 180, domain.TransportBicycle: 35, domain.TransportCar: 40},
				"강남역":   {domain.TransportSubway: 12, domain.TransportBus: 16, domain.TransportWalk: 45, domain.TransportBicycle: 20, domain.TransportCar: 15},
				"홍대입구":  {domain.TransportSubway: 35, domain.TransportBus: 55, domain.TransportWalk: 120, domain.TransportBicycle: 40, domain.TransportCar: 30},
				"신촌":    {domain.TransportSubway: 30, domain.TransportBus: 45, domain.TransportWalk: 100, domain.TransportBicycle: 35, domain.TransportCar: 25},
			},
		},
		Delays: map[TimeSlot]map[domain.TransportType]int{
			SlotMorning:   {domain.TransportSubway: 10, domain.TransportBus: 15, domain.TransportWalk: 0, domain.TransportBicycle: 5, domain.TransportCar: 20},
			SlotAfternoon: {domain.TransportSubway: 5, domain.TransportBus: 8, domain.TransportWalk: 0, domain.TransportBicycle: 2, domain.TransportCar: 10},
			SlotEvening:   {domain.TransportSubway: 8, domain.TransportBus: 12, domain.TransportWalk: 0, domain.TransportBicycle: 3, domain.TransportCar: 15},
			SlotNight:     {},
		},
	}
}

// Load reads a Table from a YAML file. A missing file (or empty path) falls
// back to DefaultTable; a present but unparsable file is an error so a typo
// does not silently revert every route to the default duration.
func Load(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("traffic.Load: %w", err)
	}
	t := &Table{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("traffic.Load: parse %s: %w", path, err)
	}
	t.normalize()
	return t, nil
}

// normalize fills nil maps so lookups on a sparse override file stay safe.
func (t *Table) normalize() {
	if t.Routes == nil {
		t.Routes = map[string]map[string]map[domain.TransportType]int{}
	}
	if t.Delays == nil {
		t.Delays = map[TimeSlot]map[domain.TransportType]int{}
	}
}

// Duration returns base + time-slot delay minutes for the route, using
// DefaultDuration as the base when the route is unknown.
func (t *Table) Duration(from, to string, transport domain.TransportType, arrivalHour int) int {
	base := DefaultDuration
	if byDest, ok := t.Routes[from]; ok {
		if byMode, ok := byDest[to]; ok {
			if m, ok := byMode[transport]; ok {
				base = m
			}
		}
	}
	return base + t.Delays[SlotOf(arrivalHour)][transport]
}

// Lookup returns the full Estimate for a route at the given arrival hour.
func (t *Table) Lookup(from, to string, transport domain.TransportType, arrivalHour int) Estimate {
	slot := SlotOf(arrivalHour)
	return Estimate{
		From:          from,
		To:            to,
		TransportType: transport,
		TimeSlot:      slot,
		Duration:      t.Duration(from, to, transport, arrivalHour),
		IsDelayed:     slot == SlotMorning || slot == SlotEvening,
	}
}
