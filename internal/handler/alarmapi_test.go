package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttalarm/internal/alarm"
	"ttalarm/internal/domain"
)

func TestListAlarms(t *testing.T) {
	d := newTestServer()
	sched := sampleSchedule()
	at := time.Date(2026, 9, 7, 8, 0, 0, 0, time.Local)
	pair := alarm.ArmedPair{
		ScheduleID: sched.ID.String(),
		Moment:     domain.MomentDeparture,
		At:         at,
		Schedule:   sched,
	}
	d.scheduler.armedFn = func() []alarm.ArmedPair { return []alarm.ArmedPair{pair} }
	d.relay.armedFn = func() []alarm.ArmedPair { return []alarm.ArmedPair{pair} }
	d.relay.active = true

	var got struct {
		Foreground  []alarm.ArmedPair `json:"foreground"`
		Background  []alarm.ArmedPair `json:"background"`
		RelayActive bool              `json:"relayActive"`
	}
	rec := d.doJSON(t, http.MethodGet, "/api/alarms", nil, &got)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got.Foreground, 1)
	require.Len(t, got.Background, 1)
	assert.Equal(t, sched.ID.String(), got.Foreground[0].ScheduleID)
	assert.True(t, got.RelayActive)
}

func TestTestAlarm_FiresBothContexts(t *testing.T) {
	d := newTestServer()
	sched := sampleSchedule()
	d.store.getFn = func(id uuid.UUID) (domain.Schedule, error) {
		require.Equal(t, sched.ID, id)
		return sched, nil
	}

	var firedMoment domain.AlarmMoment
	d.scheduler.testFireFn = func(s domain.Schedule, moment domain.AlarmMoment) {
		firedMoment = moment
	}
	relayed := false
	d.relay.testAlarmFn = func(s domain.Schedule, moment domain.AlarmMoment) bool {
		relayed = true
		return true
	}

	var got struct {
		ScheduleID string `json:"scheduleId"`
		AlarmType  string `json:"alarmType"`
		FiresInMs  int64  `json:"firesInMs"`
		Relayed    bool   `json:"relayed"`
	}
	rec := d.doJSON(t, http.MethodPost, "/api/schedules/"+sched.ID.String()+"/test-alarm",
		map[string]string{"alarmType": "preparation"}, &got)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, domain.MomentPreparation, firedMoment)
	assert.True(t, relayed)
	assert.True(t, got.Relayed)
	assert.Equal(t, alarm.TestFireDelay.Milliseconds(), got.FiresInMs)
}

func TestTestAlarm_DefaultsToDeparture(t *testing.T) {
	d := newTestServer()
	sched := sampleSchedule()
	d.store.getFn = func(id uuid.UUID) (domain.Schedule, error) { return sched, nil }

	var firedMoment domain.AlarmMoment
	d.scheduler.testFireFn = func(s domain.Schedule, moment domain.AlarmMoment) {
		firedMoment = moment
	}

	rec := d.doJSON(t, http.MethodPost, "/api/schedules/"+sched.ID.String()+"/test-alarm", nil, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, domain.MomentDeparture, firedMoment)
}

func TestTestAlarm_UnknownMoment(t *testing.T) {
	d := newTestServer()

	rec := d.doJSON(t, http.MethodPost, "/api/schedules/"+uuid.NewString()+"/test-alarm",
		map[string]string{"alarmType": "snooze"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestAlarm_UnknownSchedule(t *testing.T) {
	d := newTestServer()
	d.store.getFn = func(id uuid.UUID) (domain.Schedule, error) {
		return domain.Schedule{}, fmt.Errorf("store.Store.Get: %w", domain.ErrNotFound)
	}

	rec := d.doJSON(t, http.MethodPost, "/api/schedules/"+uuid.NewString()+"/test-alarm",
		map[string]string{"alarmType": "departure"}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
