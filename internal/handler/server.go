// Package handler implements the HTTP handlers for the departure alarm API.
// All handlers are methods on Server; methods are split into concern-specific
// files (schedule.go, alarmapi.go, notification.go, events.go) but all share
// the same Server struct so they can access its dependencies.
package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ttalarm/internal/alarm"
	"ttalarm/internal/domain"
	"ttalarm/internal/notify"
	"ttalarm/internal/relay"
	"ttalarm/internal/store"
	"ttalarm/internal/traffic"
)

// ScheduleStore defines the collection operations the schedule handlers
// depend on. Defining the interface here (in the consumer package) follows
// the Go convention: "accept interfaces, return concrete types". It lets
// handler tests inject a mock without standing up the real store.
type ScheduleStore interface {
	List() []domain.Schedule
	Get(id uuid.UUID) (domain.Schedule, error)
	Add(in store.Input) (domain.Schedule, error)
	Update(id uuid.UUID, in store.Input) (domain.Schedule, error)
	Delete(id uuid.UUID) error
	ToggleActive(id uuid.UUID) (domain.Schedule, error)
	ToggleGroupActive(ids []uuid.UUID, active bool) int
	DeleteGroup(ids []uuid.UUID) int
}

// AlarmScheduler is the foreground alarm surface the handlers expose.
type AlarmScheduler interface {
	Armed() []alarm.ArmedPair
	TestFire(sched domain.Schedule, moment domain.AlarmMoment)
}

// BackgroundRelay is the background alarm surface. Fire-and-forget: its
// methods report acceptance, never errors.
type BackgroundRelay interface {
	Active() bool
	Armed() []alarm.ArmedPair
	TestAlarm(sched domain.Schedule, moment domain.AlarmMoment) bool
	Connect() (<-chan relay.ClientMessage, func())
}

// NotificationHub is the notification-channel surface: permission state and
// the event stream.
type NotificationHub interface {
	Permission() notify.Permission
	RequestPermission() notify.Permission
	SetPermission(p notify.Permission)
	Subscribe() (<-chan notify.Event, func())
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	schedules ScheduleStore
	scheduler AlarmScheduler
	relay     BackgroundRelay
	notifier  NotificationHub
	traffic   *traffic.Table
}

// NewServer constructs the Server with all its dependencies.
func NewServer(schedules ScheduleStore, scheduler AlarmScheduler, bg BackgroundRelay, notifier NotificationHub, table *traffic.Table) *Server {
	return &Server{
		schedules: schedules,
		scheduler: scheduler,
		relay:     bg,
		notifier:  notifier,
		traffic:   table,
	}
}

// Routes mounts every endpoint on a fresh router. Middleware is applied by
// the caller (main.go) so tests can exercise bare handlers.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.ListSchedules)
			r.Post("/", s.CreateSchedule)
			r.Post("/group/toggle", s.ToggleScheduleGroup)
			r.Post("/group/delete", s.DeleteScheduleGroup)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSchedule)
				r.Put("/", s.UpdateSchedule)
				r.Delete("/", s.DeleteSchedule)
				r.Post("/toggle", s.ToggleSchedule)
				r.Post("/test-alarm", s.TestAlarm)
			})
		})

		r.Get("/alarms", s.ListAlarms)
		r.Get("/traffic/estimate", s.TrafficEstimate)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/permission", s.GetPermission)
			r.Post("/permission", s.UpdatePermission)
		})

		r.Get("/events", s.StreamEvents)
	})

	return r
}
