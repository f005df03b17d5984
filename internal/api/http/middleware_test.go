package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roadwatch/damage-service/internal/observability"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

func TestErrorEnvelopeAndLoggedStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), observability.NewMetrics(), 0)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("widget", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	require.Equal(t, 404, resp.StatusCode)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "NOT_FOUND", payload.Error.Code)

	// The request log carries the converted status, not the pre-envelope one.
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	require.EqualValues(t, 404, entries[0].ContextMap()["status"])
}

func TestPanicConvertedToInternalError(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, 500, resp.StatusCode)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "INTERNAL_ERROR", payload.Error.Code)
}
