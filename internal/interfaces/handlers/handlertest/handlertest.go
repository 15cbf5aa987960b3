// Package handlertest holds helpers shared by the HTTP handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"coinease-backend/internal/domain"
	"coinease-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// NewApp returns a fiber app with the production error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
}

// AsUser puts u into the request as the session user. A nil u leaves the
// request anonymous.
func AsUser(u *domain.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if u != nil {
			middleware.SetSessionUser(c, middleware.SessionUser{
				UserID:   u.ID.String(),
				FullName: u.FullName,
				Email:    u.Email,
				Role:     u.Role,
			})
		}
		return c.Next()
	}
}

// Do sends a request with an optional JSON body.
func Do(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Envelope is the decoded response body.
type Envelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Error   map[string]interface{} `json:"error"`
}

func Decode(t *testing.T, resp *http.Response) Envelope {
	t.Helper()
	defer resp.Body.Close()
	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// Into decodes the envelope's data into v.
func (e Envelope) Into(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v))
}
