package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"emlak-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(reg *prometheus.Registry) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.WriteError})
	app.Use(Middleware())
	app.Get("/metrics", Handler(reg))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return apperr.NotFound("yok")
		}
		return c.SendString("ok")
	})
	return app
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	app := newApp(reg)

	okBefore := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/items/:id", "200"))
	nfBefore := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/items/:id", "404"))

	for _, path := range []string{"/items/1", "/items/2", "/items/0"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, okBefore+2, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, nfBefore+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/items/:id", "404")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	app := newApp(reg)

	resp, err := app.Test(httptest.NewRequest("GET", "/items/5", nil))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "emlak_http_requests_total")
	assert.Contains(t, string(body), `route="/items/:id"`)
}
