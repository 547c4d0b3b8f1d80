package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
)

// stubDispatcher records the last request and replies with a canned response.
type stubDispatcher struct {
	lastReq domain.ActionRequest
	resp    domain.ActionResponse
}

func (s *stubDispatcher) Dispatch(_ context.Context, req domain.ActionRequest) domain.ActionResponse {
	s.lastReq = req
	return s.resp
}

func newTestApp(d *stubDispatcher) *fiber.App {
	handler := NewActionHandler(d)
	app := fiber.New()
	v1 := app.Group("/api").Group("/v1")
	v1.Get("/actions", handler.ListActions)
	v1.Post("/actions/:name", handler.Execute)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return resp.StatusCode, decoded
}

func TestExecutePassesActionAndParams(t *testing.T) {
	d := &stubDispatcher{resp: domain.OK(map[string]any{"exists": true})}
	app := newTestApp(d)

	status, body := post(t, app, "/api/v1/actions/has_worker", `{"worker_id": "abc"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	assert.Equal(t, "has_worker", d.lastReq.Action)
	assert.Equal(t, map[string]any{"worker_id": "abc"}, d.lastReq.Params)
}

func TestExecuteAllowsEmptyBody(t *testing.T) {
	d := &stubDispatcher{resp: domain.OK(nil)}
	app := newTestApp(d)

	status, _ := post(t, app, "/api/v1/actions/list_workers", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{}, d.lastReq.Params)
}

func TestExecuteRejectsMalformedBody(t *testing.T) {
	d := &stubDispatcher{resp: domain.OK(nil)}
	app := newTestApp(d)

	status, body := post(t, app, "/api/v1/actions/create_worker", `{"vcpus":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
}

func TestErrorKindStatusMapping(t *testing.T) {
	tests := []struct {
		kind domain.ErrorKind
		want int
	}{
		{domain.ErrUnknownAction, fiber.StatusNotFound},
		{domain.ErrNotFound, fiber.StatusNotFound},
		{domain.ErrInvalidParameter, fiber.StatusBadRequest},
		{domain.ErrNotConfigured, fiber.StatusConflict},
		{domain.ErrContainerNotReady, fiber.StatusServiceUnavailable},
		{domain.ErrCommandTimeout, fiber.StatusGatewayTimeout},
		{domain.ErrCommandFailed, fiber.StatusBadGateway},
		{domain.ErrParse, fiber.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d := &stubDispatcher{resp: domain.Fail(domain.NewError(tt.kind, "boom"))}
			app := newTestApp(d)

			status, body := post(t, app, "/api/v1/actions/test_install", "{}")
			assert.Equal(t, tt.want, status)
			errObj, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, string(tt.kind), errObj["kind"])
		})
	}
}

func TestListActions(t *testing.T) {
	app := newTestApp(&stubDispatcher{})

	req := httptest.NewRequest("GET", "/api/v1/actions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Actions []string `json:"actions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Actions, 10)
	assert.Contains(t, body.Actions, "create_worker")
	assert.Contains(t, body.Actions, "setup_container")
}
