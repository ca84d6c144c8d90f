package handler

import (
	"net/http"

	"ttalarm/internal/domain"
	"ttalarm/internal/timeutil"
)

// TrafficEstimate handles GET /api/traffic/estimate. It exposes the raw
// travel-duration lookup (base minutes plus time-slot delay) so a client can
// preview the derived times a schedule would get before saving it.
//
// Query parameters: from (optional, unknown routes fall back to the default
// duration), to, transportType, arrivalTime ("HH:MM").
func (s *Server) TrafficEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	to := q.Get("to")
	if to == "" {
		writeBadRequest(w, "to is required")
		return
	}
	transport := domain.TransportType(q.Get("transportType"))
	if !transport.Valid() {
		writeBadRequest(w, "unknown transport type "+q.Get("transportType"))
		return
	}
	hm, err := timeutil.Parse(q.Get("arrivalTime"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.traffic.Lookup(q.Get("from"), to, transport, hm.Hour))
}
