package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/utils"
)

func perform(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()
	var payload utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "", map[string]string{"key": "value"})
	})

	resp := perform(t, app, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decode(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
}

func TestSendSuccessWithStatus(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "created", nil)
	})

	resp := perform(t, app, "/")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "created", decode(t, resp).Message)
}

func TestSendError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusConflict, "already exists")
	})

	resp := perform(t, app, "/")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	payload := decode(t, resp)
	require.False(t, payload.Success)
	require.Equal(t, "already exists", payload.Message)
}
