package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ttalarm/internal/alarm"
	"ttalarm/internal/domain"
	"ttalarm/internal/handler"
	"ttalarm/internal/notify"
	"ttalarm/internal/relay"
	"ttalarm/internal/store"
	"ttalarm/internal/traffic"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// mockStore implements handler.ScheduleStore with function fields so each
// test overrides only what it needs.
type mockStore struct {
	listFn        func() []domain.Schedule
	getFn         func(id uuid.UUID) (domain.Schedule, error)
	addFn         func(in store.Input) (domain.Schedule, error)
	updateFn      func(id uuid.UUID, in store.Input) (domain.Schedule, error)
	deleteFn      func(id uuid.UUID) error
	toggleFn      func(id uuid.UUID) (domain.Schedule, error)
	toggleGroupFn func(ids []uuid.UUID, active bool) int
	deleteGroupFn func(ids []uuid.UUID) int
}

func (m *mockStore) List() []domain.Schedule { return m.listFn() }
func (m *mockStore) Get(id uuid.UUID) (domain.Schedule, error) {
	return m.getFn(id)
}
func (m *mockStore) Add(in store.Input) (domain.Schedule, error) {
	return m.addFn(in)
}
func (m *mockStore) Update(id uuid.UUID, in store.Input) (domain.Schedule, error) {
	return m.updateFn(id, in)
}
func (m *mockStore) Delete(id uuid.UUID) error { return m.deleteFn(id) }
func (m *mockStore) ToggleActive(id uuid.UUID) (domain.Schedule, error) {
	return m.toggleFn(id)
}
func (m *mockStore) ToggleGroupActive(ids []uuid.UUID, active bool) int {
	return m.toggleGroupFn(ids, active)
}
func (m *mockStore) DeleteGroup(ids []uuid.UUID) int { return m.deleteGroupFn(ids) }

// mockScheduler implements handler.AlarmScheduler.
type mockScheduler struct {
	armedFn    func() []alarm.ArmedPair
	testFireFn func(sched domain.Schedule, moment domain.AlarmMoment)
}

func (m *mockScheduler) Armed() []alarm.ArmedPair {
	if m.armedFn == nil {
		return nil
	}
	return m.armedFn()
}

func (m *mockScheduler) TestFire(sched domain.Schedule, moment domain.AlarmMoment) {
	if m.testFireFn != nil {
		m.testFireFn(sched, moment)
	}
}

// mockRelay implements handler.BackgroundRelay.
type mockRelay struct {
	active      bool
	armedFn     func() []alarm.ArmedPair
	testAlarmFn func(sched domain.Schedule, moment domain.AlarmMoment) bool
	connectFn   func() (<-chan relay.ClientMessage, func())
}

func (m *mockRelay) Active() bool { return m.active }
func (m *mockRelay) Armed() []alarm.ArmedPair {
	if m.armedFn == nil {
		return nil
	}
	return m.armedFn()
}
func (m *mockRelay) TestAlarm(sched domain.Schedule, moment domain.AlarmMoment) bool {
	if m.testAlarmFn == nil {
		return false
	}
	return m.testAlarmFn(sched, moment)
}
func (m *mockRelay) Connect() (<-chan relay.ClientMessage, func()) {
	if m.connectFn == nil {
		ch := make(chan relay.ClientMessage)
		return ch, func() {}
	}
	return m.connectFn()
}

// mockNotifier implements handler.NotificationHub.
type mockNotifier struct {
	permission   notify.Permission
	requested    bool
	subscribeFn  func() (<-chan notify.Event, func())
	setCallCount int
}

func (m *mockNotifier) Permission() notify.Permission { return m.permission }
func (m *mockNotifier) RequestPermission() notify.Permission {
	m.requested = true
	if m.permission == notify.PermissionDefault || m.permission == "" {
		m.permission = notify.PermissionGranted
	}
	return m.permission
}
func (m *mockNotifier) SetPermission(p notify.Permission) {
	m.setCallCount++
	m.permission = p
}
func (m *mockNotifier) Subscribe() (<-chan notify.Event, func()) {
	if m.subscribeFn == nil {
		ch := make(chan notify.Event)
		return ch, func() {}
	}
	return m.subscribeFn()
}

// testDeps bundles the mocks behind a Server for one test.
type testDeps struct {
	store     *mockStore
	scheduler *mockScheduler
	relay     *mockRelay
	notifier  *mockNotifier
	router    http.Handler
}

func newTestServer() *testDeps {
	d := &testDeps{
		store:     &mockStore{},
		scheduler: &mockScheduler{},
		relay:     &mockRelay{},
		notifier:  &mockNotifier{permission: notify.PermissionDefault},
	}
	d.router = handler.NewServer(d.store, d.scheduler, d.relay, d.notifier, traffic.DefaultTable()).Routes()
	return d
}

// doJSON performs a request against the router and decodes the JSON response
// into out (skipped when out is nil).
func (d *testDeps) doJSON(t *testing.T, method, target string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	d.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func sampleSchedule() domain.Schedule {
	return domain.Schedule{
		ID:                   uuid.New(),
		Origin:               "잠실 루터회관",
		Destination:          "행성대학교",
		ArrivalTime:          "09:00",
		TransportType:        domain.TransportSubway,
		PreparationTime:      30,
		DepartureTime:        "08:00",
		PreparationStartTime: "07:30",
		Weekdays:             []domain.Weekday{"monday", "wednesday"},
		IsActive:             true,
	}
}
