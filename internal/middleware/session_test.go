package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/relvanta/relvanta-api/internal/models"
	"github.com/relvanta/relvanta-api/internal/repository"
	"github.com/relvanta/relvanta-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *repository.MemoryStore, userID string, role models.Role, token string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, models.User{UserID: userID, Email: userID + "@example.com", Role: role}))
	require.NoError(t, store.CreateSession(ctx, models.Session{
		TokenHash: services.HashToken(token),
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
}

func whoami(c *fiber.Ctx) error {
	if user := CurrentUser(c); user != nil {
		return c.SendString(user.UserID)
	}
	return c.SendString("anonymous")
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestSessionTokenPrefersCookie(t *testing.T) {
	store := repository.NewMemoryStore()
	seedUser(t, store, "user_cookie", models.RoleClient, "sess_cookie")
	seedUser(t, store, "user_bearer", models.RoleClient, "sess_bearer")

	app := fiber.New()
	app.Get("/", OptionalSession(services.NewSessionResolver(store, store, nil)), whoami)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess_cookie"})
	req.Header.Set("Authorization", "Bearer sess_bearer")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "user_cookie", body(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sess_bearer")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "user_bearer", body(t, resp))
}

func TestOptionalSessionAnonymous(t *testing.T) {
	store := repository.NewMemoryStore()
	app := fiber.New()
	app.Get("/", OptionalSession(services.NewSessionResolver(store, store, nil)), whoami)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sess_unknown")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "anonymous", body(t, resp))
}

func TestRequireSession(t *testing.T) {
	store := repository.NewMemoryStore()
	seedUser(t, store, "user_1", models.RoleClient, "sess_1")
	app := fiber.New()
	app.Get("/", RequireSession(services.NewSessionResolver(store, store, nil)), whoami)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":true,"message":"Not authenticated"}`, body(t, resp))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess_1"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "user_1", body(t, resp))
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (*models.User, error) {
	return nil, errors.New("store unavailable")
}

func TestSessionStoreFailureIsServerError(t *testing.T) {
	app := fiber.New()
	app.Get("/opt", OptionalSession(failingResolver{}), whoami)
	app.Get("/req", RequireSession(failingResolver{}), whoami)

	for _, path := range []string{"/opt", "/req"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer sess_x")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode, path)
	}
}

func TestSelfOrAdmin(t *testing.T) {
	store := repository.NewMemoryStore()
	seedUser(t, store, "user_a", models.RoleClient, "sess_a")
	seedUser(t, store, "user_b", models.RoleClient, "sess_b")
	seedUser(t, store, "user_admin", models.RoleAdmin, "sess_admin")

	app := fiber.New()
	app.Get("/access/:user_id",
		RequireSession(services.NewSessionResolver(store, store, nil)),
		SelfOrAdmin("user_id"),
		whoami,
	)

	tests := []struct {
		token string
		want  int
	}{
		{"sess_a", fiber.StatusOK},
		{"sess_b", fiber.StatusForbidden},
		{"sess_admin", fiber.StatusOK},
		{"", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/access/user_a", nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, tt.token)
	}
}
