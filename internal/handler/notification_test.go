package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"ttalarm/internal/notify"
)

func TestGetPermission(t *testing.T) {
	d := newTestServer()
	d.notifier.permission = notify.PermissionDenied

	var got struct {
		Permission string `json:"permission"`
	}
	rec := d.doJSON(t, http.MethodGet, "/api/notifications/permission", nil, &got)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "denied", got.Permission)
}

func TestUpdatePermission_RequestsWhenBodyEmpty(t *testing.T) {
	d := newTestServer()

	var got struct {
		Permission string `json:"permission"`
	}
	rec := d.doJSON(t, http.MethodPost, "/api/notifications/permission", nil, &got)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, d.notifier.requested)
	assert.Equal(t, "granted", got.Permission)
}

func TestUpdatePermission_SetsReportedState(t *testing.T) {
	d := newTestServer()

	var got struct {
		Permission string `json:"permission"`
	}
	rec := d.doJSON(t, http.MethodPost, "/api/notifications/permission",
		map[string]string{"permission": "denied"}, &got)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, d.notifier.setCallCount)
	assert.Equal(t, "denied", got.Permission)
}

func TestUpdatePermission_RejectsUnknownState(t *testing.T) {
	d := newTestServer()

	rec := d.doJSON(t, http.MethodPost, "/api/notifications/permission",
		map[string]string{"permission": "maybe"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, d.notifier.setCallCount)
}
