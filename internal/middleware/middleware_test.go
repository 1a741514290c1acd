package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-gap-api/internal/middleware"
	"github.com/noah-isme/learning-gap-api/internal/observability"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func identityApp(guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", guard, func(c *fiber.Ctx) error {
		id, ok := middleware.UserID(c)
		return c.JSON(fiber.Map{
			"authenticated": ok,
			"id":            id,
			"role":          middleware.UserRole(c),
			"name":          middleware.UserName(c),
		})
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestJWTProtectedBindsIdentity(t *testing.T) {
	app := identityApp(middleware.JWTProtected(testSecret))
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "42",
		"role": "Teacher",
		"name": "Bu Sari",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	resp := get(t, app, "/whoami", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"authenticated":true,"id":42,"role":"teacher","name":"Bu Sari"}`, string(body))
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := identityApp(middleware.JWTProtected(testSecret))

	expired := signToken(t, testSecret, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Minute).Unix()})
	forged := signToken(t, "other-secret", jwt.MapClaims{"sub": "1"})
	noSubject := signToken(t, testSecret, jwt.MapClaims{"role": "student"})

	require.Equal(t, fiber.StatusUnauthorized, get(t, app, "/whoami", "").StatusCode)
	for _, token := range []string{expired, forged, noSubject, "garbage"} {
		require.Equal(t, fiber.StatusUnauthorized, get(t, app, "/whoami", token).StatusCode)
	}
}

func TestJWTOptionalAllowsAnonymous(t *testing.T) {
	app := identityApp(middleware.JWTOptional(testSecret))

	resp := get(t, app, "/whoami", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"authenticated":false`)

	require.Equal(t, fiber.StatusUnauthorized, get(t, app, "/whoami", "garbage").StatusCode)
}

func TestCorrelationIDEchoesOrGenerates(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.GetCorrelationID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderCorrelationID, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(middleware.HeaderCorrelationID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderCorrelationID, strings.Repeat("x", 200))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	generated := resp.Header.Get(middleware.HeaderCorrelationID)
	require.Len(t, generated, 36)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, generated, string(body))
}

func TestRateLimitRejectsAfterMax(t *testing.T) {
	app := fiber.New()
	app.Post("/login", middleware.RateLimit("login", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	require.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, statuses)
}

func TestObservabilityCountsAPIRequestsOnly(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.Observability(zerolog.Nop()))
	app.Get("/api/v1/things/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})
	app.Get("/metrics-like", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	route := "/api/v1/things/:id"
	status := strconv.Itoa(fiber.StatusNotFound)
	before := testutil.ToFloat64(observability.HTTPErrors().WithLabelValues(http.MethodGet, route, status))

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/things/9", nil), -1)
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics-like", nil), -1)
	require.NoError(t, err)

	require.Equal(t, before+1, testutil.ToFloat64(observability.HTTPErrors().WithLabelValues(http.MethodGet, route, status)))
	require.Zero(t, testutil.ToFloat64(observability.HTTPRequests().WithLabelValues(http.MethodGet, "/metrics-like", "200")))
}
