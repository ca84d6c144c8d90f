package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ttalarm/internal/store"
)

// ListSchedules handles GET /api/schedules.
func (s *Server) ListSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.schedules.List())
}

// CreateSchedule handles POST /api/schedules. Derived times are computed by
// the store; any departureTime or preparationStartTime in the body is ignored
// because Input simply has no field for them.
func (s *Server) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var in store.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	created, err := s.schedules.Add(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetSchedule handles GET /api/schedules/{id}.
func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sched, err := s.schedules.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// UpdateSchedule handles PUT /api/schedules/{id}.
func (s *Server) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in store.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	updated, err := s.schedules.Update(id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSchedule handles DELETE /api/schedules/{id}.
func (s *Server) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.schedules.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSchedule handles POST /api/schedules/{id}/toggle.
func (s *Server) ToggleSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	toggled, err := s.schedules.ToggleActive(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}

// groupRequest is the body of both group endpoints. Active is ignored by
// group delete.
type groupRequest struct {
	IDs    []string `json:"ids"`
	Active bool     `json:"active"`
}

// groupResponse reports how many schedules a group operation touched.
// Unknown IDs are skipped, not errors.
type groupResponse struct {
	Changed int `json:"changed"`
}

// ToggleScheduleGroup handles POST /api/schedules/group/toggle.
func (s *Server) ToggleScheduleGroup(w http.ResponseWriter, r *http.Request) {
	ids, active, ok := decodeGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, groupResponse{Changed: s.schedules.ToggleGroupActive(ids, active)})
}

// DeleteScheduleGroup handles POST /api/schedules/group/delete.
func (s *Server) DeleteScheduleGroup(w http.ResponseWriter, r *http.Request) {
	ids, _, ok := decodeGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, groupResponse{Changed: s.schedules.DeleteGroup(ids)})
}

func decodeGroup(w http.ResponseWriter, r *http.Request) ([]uuid.UUID, bool, bool) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return nil, false, false
	}
	if len(req.IDs) == 0 {
		writeBadRequest(w, "ids is required")
		return nil, false, false
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeBadRequest(w, "invalid schedule id "+raw)
			return nil, false, false
		}
		ids = append(ids, id)
	}
	return ids, req.Active, true
}

// pathID parses the {id} path parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid schedule id")
		return uuid.Nil, false
	}
	return id, true
}
