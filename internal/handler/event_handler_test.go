package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillopus-api/internal/models"
)

func TestEventStreamGatekeeping(t *testing.T) {
	a := newTestApp(t)

	resp := a.call(t, http.MethodGet, apiPath("/events/ws"), models.User{}, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/events/ws"), a.acme.admin, nil)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, apiPath("/events/ws")+"?token="+tokenFor(t, a.acme.student), nil)
	req.Header.Set(fiber.HeaderConnection, "Upgrade")
	req.Header.Set(fiber.HeaderUpgrade, "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
