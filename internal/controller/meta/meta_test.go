package meta

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"equipviz.dev/backend/internal/pkg/bininfo"
	"equipviz.dev/backend/internal/server/httpserver"
	"equipviz.dev/backend/internal/server/svr"
	"equipviz.dev/backend/internal/service"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httpserver.ErrorHandler})
	_, meta := svr.CreateEndpointGroups(app)
	RegisterMeta(meta, Meta{HealthService: service.NewHealth(service.HealthDeps{})})
	return app
}

func TestHealthWithoutBackends(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(fiber.MethodGet, "/api/_/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", gjson.GetBytes(body, "status").String())
}

func TestBinInfo(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(fiber.MethodGet, "/api/_/bininfo", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, bininfo.Version, gjson.GetBytes(body, "version").String())
	assert.Equal(t, bininfo.BuildTime, gjson.GetBytes(body, "buildTime").String())
}
