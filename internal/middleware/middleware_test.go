package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"coinease-backend/internal/constants"
	"coinease-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".coinease.io", DevPassword: "letmein"}))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := []struct {
		name   string
		method string
		origin string
		devPw  string
		want   int
		allow  bool
	}{
		{"no origin", "GET", "", "", fiber.StatusOK, false},
		{"suffix match", "GET", "https://app.coinease.io", "", fiber.StatusOK, true},
		{"localhost preflight", "OPTIONS", "http://localhost:3000", "", fiber.StatusNoContent, true},
		{"dev password", "GET", "https://preview.example.com", "letmein", fiber.StatusOK, true},
		{"rejected", "GET", "https://evil.example.com", "", fiber.StatusForbidden, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/x", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.devPw != "" {
				req.Header.Set("dev-password", tc.devPw)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.allow {
				assert.Equal(t, tc.origin, resp.Header.Get("Access-Control-Allow-Origin"))
				assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
			} else {
				assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error {
		assert.NotNil(t, zerolog.Ctx(c.UserContext()))
		return c.SendString(GetTraceID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get("X-Trace-Id"))
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", incoming)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, incoming, resp.Header.Get("X-Trace-Id"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "garbage", resp.Header.Get("X-Trace-Id"))
}

func TestSessionRoundTrip(t *testing.T) {
	rdb, mr := newRedis(t)
	app := fiber.New()
	app.Use(Session(SessionConfig{}, rdb))
	userID := uuid.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{UserID: userID.String(), Email: "a@b.com", Role: "user"})
		return c.SendString(sid)
	})
	app.Get("/whoami", RequireAuth(), func(c *fiber.Ctx) error {
		id, _ := CurrentUserID(c)
		return c.SendString(id.String())
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	sid := string(b)
	assert.True(t, mr.Exists(SessionRedisPrefix+sid))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookieName+"=s:"+sid)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionCookieConfig(t *testing.T) {
	c := SessionCookieConfig(SessionConfig{IsProduction: true, CookieDomain: ".coinease.io"})
	assert.True(t, c.Secure)
	assert.Equal(t, "Lax", c.SameSite)
	assert.Equal(t, ".coinease.io", c.Domain)

	c = SessionCookieConfig(SessionConfig{AllowCrossSiteDev: true})
	assert.True(t, c.Secure)
	assert.Equal(t, "None", c.SameSite)
}

func withUser(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals(userLocal, map[string]interface{}{"user_id": uuid.NewString(), "role": role})
		}
		return c.Next()
	}
}

func TestAuthorizePermission(t *testing.T) {
	for _, tc := range []struct {
		role       string
		permission string
		want       int
	}{
		{"staff", constants.ReviewDeposits, fiber.StatusOK},
		{"user", constants.ReviewDeposits, fiber.StatusForbidden},
		{"", constants.ReviewDeposits, fiber.StatusUnauthorized},
		{"staff", "not-configured", fiber.StatusInternalServerError},
	} {
		app := fiber.New()
		app.Get("/", withUser(tc.role), AuthorizePermission(tc.permission), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, "%s/%s", tc.role, tc.permission)
	}
}

func TestAuthorizePermission_DeniedBody(t *testing.T) {
	app := fiber.New()
	app.Get("/", withUser("user"), AuthorizePermission(constants.ManagePlans), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Error  struct {
			Message string                 `json:"message"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "Staff access required", body.Error.Message)
	assert.Equal(t, constants.ManagePlans, body.Error.Details["permission"])
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/domain", func(c *fiber.Ctx) error { return domain.ErrInsufficientBalance })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrMethodNotAllowed })
	app.Get("/other", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	for path, want := range map[string]int{
		"/domain":  fiber.StatusBadRequest,
		"/fiber":   fiber.StatusMethodNotAllowed,
		"/other":   fiber.StatusInternalServerError,
		"/missing": fiber.StatusNotFound,
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "error", body["status"], path)
	}
}

func TestHealthMarker(t *testing.T) {
	rdb, mr := newRedis(t)
	app := fiber.New()
	app.Use(HealthMarker(rdb))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, p := range []string{"/ok", "/boom", "/metrics"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}
	total, _ := mr.Get(KeyReqTotal)
	assert.Equal(t, "2", total)
	errs, _ := mr.Get(KeyReqErrors)
	assert.Equal(t, "1", errs)
	n, err := rdb.LLen(context.Background(), KeyErrorLog).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
