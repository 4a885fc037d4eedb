package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedApp(t *testing.T, auth helper.Auth) (*fiber.App, *bool) {
	t.Helper()
	reached := false
	app := fiber.New()
	app.Get("/private", AuthMiddleware(auth), func(c *fiber.Ctx) error {
		reached = true
		user, err := auth.GetCurrentUser(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"userId": user.UserID, "exp": user.ExpiresAt})
	})
	return app, &reached
}

func doGet(t *testing.T, app *fiber.App, authHeader string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", "/private", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestAuthMiddleware(t *testing.T) {
	auth, err := helper.SetupAuth("test-secret", 4)
	require.NoError(t, err)
	other, err := helper.SetupAuth("other-secret", 4)
	require.NoError(t, err)

	valid, err := auth.GenerateToken(7)
	require.NoError(t, err)
	forged, err := other.GenerateToken(7)
	require.NoError(t, err)
	expired, err := auth.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).GenerateToken(7)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		reached bool
	}{
		{"missing header", "", fiber.StatusUnauthorized, false},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized, false},
		{"empty bearer", "Bearer ", fiber.StatusUnauthorized, false},
		{"malformed", "Bearer not-a-jwt", fiber.StatusForbidden, false},
		{"wrong secret", "Bearer " + forged, fiber.StatusForbidden, false},
		{"expired", "Bearer " + expired, fiber.StatusForbidden, false},
		{"valid", "Bearer " + valid, fiber.StatusOK, true},
		{"lowercase scheme", "bearer " + valid, fiber.StatusOK, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, reached := newGuardedApp(t, auth)
			status, body := doGet(t, app, tc.header)

			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.reached, *reached)
			if tc.reached {
				assert.EqualValues(t, 7, body["userId"])
				assert.NotZero(t, body["exp"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestGetCurrentUser_WithoutMiddleware(t *testing.T) {
	auth, err := helper.SetupAuth("test-secret", 4)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/open", func(c *fiber.Ctx) error {
		if _, err := auth.GetCurrentUser(c); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
