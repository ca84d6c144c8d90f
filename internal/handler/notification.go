package handler

import (
	"encoding/json"
	"net/http"

	"ttalarm/internal/notify"
)

type permissionResponse struct {
	Permission notify.Permission `json:"permission"`
}

// GetPermission handles GET /api/notifications/permission.
func (s *Server) GetPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissionResponse{Permission: s.notifier.Permission()})
}

// permissionRequest optionally forces a permission state, for clients that
// resolved the platform prompt themselves.
type permissionRequest struct {
	Permission notify.Permission `json:"permission"`
}

// UpdatePermission handles POST /api/notifications/permission. Without a
// body it requests permission, which is idempotent: a settled grant or
// denial is returned as-is. With {"permission": "..."} it records the state
// the client reports.
func (s *Server) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	}

	if req.Permission == "" {
		writeJSON(w, http.StatusOK, permissionResponse{Permission: s.notifier.RequestPermission()})
		return
	}

	switch req.Permission {
	case notify.PermissionDefault, notify.PermissionGranted, notify.PermissionDenied, notify.PermissionUnsupported:
		s.notifier.SetPermission(req.Permission)
		writeJSON(w, http.StatusOK, permissionResponse{Permission: s.notifier.Permission()})
	default:
		writeBadRequest(w, "unknown permission state "+string(req.Permission))
	}
}
