package handler

import (
	"encoding/json"
	"net/http"

	"ttalarm/internal/alarm"
	"ttalarm/internal/domain"
)

// alarmsResponse lists the live armed pairs of both alarm contexts side by
// side so a client can see at a glance whether the background relay mirrors
// the foreground scheduler.
type alarmsResponse struct {
	Foreground  []alarm.ArmedPair `json:"foreground"`
	Background  []alarm.ArmedPair `json:"background"`
	RelayActive bool              `json:"relayActive"`
}

// ListAlarms handles GET /api/alarms.
func (s *Server) ListAlarms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, alarmsResponse{
		Foreground:  s.scheduler.Armed(),
		Background:  s.relay.Armed(),
		RelayActive: s.relay.Active(),
	})
}

// testAlarmRequest selects which alarm moment the test fires as.
type testAlarmRequest struct {
	AlarmType domain.AlarmMoment `json:"alarmType"`
}

type testAlarmResponse struct {
	ScheduleID string             `json:"scheduleId"`
	AlarmType  domain.AlarmMoment `json:"alarmType"`
	FiresInMs  int64              `json:"firesInMs"`
	Relayed    bool               `json:"relayed"`
}

// TestAlarm handles POST /api/schedules/{id}/test-alarm. It arms a throwaway
// pair on both the foreground scheduler and the background relay that fires
// after a short fixed delay, so a user can verify the whole notification
// path without waiting for a real deadline.
func (s *Server) TestAlarm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	req := testAlarmRequest{AlarmType: domain.MomentDeparture}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	}
	if !req.AlarmType.Valid() {
		writeBadRequest(w, "unknown alarm type "+string(req.AlarmType))
		return
	}

	sched, err := s.schedules.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.scheduler.TestFire(sched, req.AlarmType)
	relayed := s.relay.TestAlarm(sched, req.AlarmType)

	writeJSON(w, http.StatusAccepted, testAlarmResponse{
		ScheduleID: sched.ID.String(),
		AlarmType:  req.AlarmType,
		FiresInMs:  alarm.TestFireDelay.Milliseconds(),
		Relayed:    relayed,
	})
}
