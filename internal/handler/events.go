package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamEvents handles GET /api/events as a server-sent event stream. It
// merges the notification hub's presentation events with the background
// relay's client messages, so one connection carries everything a page needs
// to render alarms. The connection doubles as relay registration: while at
// least one stream is open, relay fires are pushed here instead of falling
// back to local presentation.
func (s *Server) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "internal_error", Message: "streaming unsupported"},
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := s.notifier.Subscribe()
	defer unsubscribe()
	relayMsgs, disconnect := s.relay.Connect()
	defer disconnect()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			writeSSE(w, ev.Kind, ev)
			flusher.Flush()
		case msg, open := <-relayMsgs:
			if !open {
				return
			}
			writeSSE(w, "relay", msg)
			flusher.Flush()
		}
	}
}

// writeSSE renders one server-sent event with a named event type and a JSON
// payload.
func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
