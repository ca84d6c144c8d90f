package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ttalarm/internal/notify"
	"ttalarm/internal/relay"
)

func TestStreamEvents_MergesNotificationsAndRelayMessages(t *testing.T) {
	d := newTestServer()

	events := make(chan notify.Event, 1)
	d.notifier.subscribeFn = func() (<-chan notify.Event, func()) {
		return events, func() {}
	}
	relayMsgs := make(chan relay.ClientMessage, 1)
	d.relay.connectFn = func() (<-chan relay.ClientMessage, func()) {
		return relayMsgs, func() {}
	}

	events <- notify.Event{Kind: notify.EventNotification, Title: "departure alarm", Tag: "abc-departure"}
	relayMsgs <- relay.ClientMessage{Type: relay.MsgClaimed}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.router.ServeHTTP(rec, req)
	}()

	// Both queued payloads drain before the handler blocks; then close the
	// stream from the client side.
	assert.Eventually(t, func() bool {
		return len(events) == 0 && len(relayMsgs) == 0
	}, waitFor, tick)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: notification\n")
	assert.Contains(t, body, `"title":"departure alarm"`)
	assert.Contains(t, body, "event: relay\n")
	assert.Contains(t, body, `"type":"CLAIMED"`)
}

func TestStreamEvents_EndsWhenHubDropsClient(t *testing.T) {
	d := newTestServer()

	events := make(chan notify.Event)
	d.notifier.subscribeFn = func() (<-chan notify.Event, func()) {
		return events, func() {}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.router.ServeHTTP(rec, req)
	}()

	close(events)
	<-done

	assert.Equal(t, http.StatusOK, rec.Code)
}
