package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/travelbook/internal/models"
	"github.com/example/travelbook/internal/utils"
)

const testSecret = "test-secret"

func staticLoader(users map[uuid.UUID]*models.User) UserLoader {
	return func(c *fiber.Ctx, id uuid.UUID) (*models.User, error) {
		if user, ok := users[id]; ok {
			return user, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
}

func authApp(t *testing.T, users map[uuid.UUID]*models.User) *fiber.App {
	t.Helper()
	app := fiber.New()
	auth := NewAuth(testSecret, staticLoader(users))
	app.Get("/me", auth.Authenticate, func(c *fiber.Ctx) error {
		user, _ := CurrentUser(c)
		return c.JSON(fiber.Map{"email": user.Email})
	})
	app.Get("/open", auth.Optional, func(c *fiber.Ctx) error {
		_, authenticated := CurrentUserID(c)
		return c.JSON(fiber.Map{"authenticated": authenticated})
	})
	return app
}

func signedToken(t *testing.T, userID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, userID, ttl)
	require.NoError(t, err)
	return token
}

func TestAuthenticateHappyPath(t *testing.T) {
	user := &models.User{Email: "aiko@example.com", IsActive: true}
	user.ID = uuid.New()
	app := authApp(t, map[uuid.UUID]*models.User{user.ID: user})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, user.ID, time.Hour))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthenticateAcceptsRawToken(t *testing.T) {
	user := &models.User{Email: "aiko@example.com", IsActive: true}
	user.ID = uuid.New()
	app := authApp(t, map[uuid.UUID]*models.User{user.ID: user})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", signedToken(t, user.ID, time.Hour))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthenticateMissingToken(t *testing.T) {
	app := authApp(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	user := &models.User{IsActive: true}
	user.ID = uuid.New()
	app := authApp(t, map[uuid.UUID]*models.User{user.ID: user})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, user.ID, -time.Minute))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	app := authApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, uuid.New(), time.Hour))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	user := &models.User{IsActive: false}
	user.ID = uuid.New()
	app := authApp(t, map[uuid.UUID]*models.User{user.ID: user})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, user.ID, time.Hour))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateLockedAccount(t *testing.T) {
	until := time.Now().Add(time.Hour)
	user := &models.User{IsActive: true, LockUntil: &until}
	user.ID = uuid.New()
	app := authApp(t, map[uuid.UUID]*models.User{user.ID: user})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, user.ID, time.Hour))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
}

func TestOptionalNeverFails(t *testing.T) {
	app := authApp(t, nil)

	// Anonymous request.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Garbage token is ignored rather than rejected.
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRoles(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", func(c *fiber.Ctx) error {
		user := &models.User{Role: c.Get("X-Test-Role")}
		c.Locals(userContextKey, user)
		return c.Next()
	}, RequireRoles(models.RoleOwner), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Test-Role", models.RoleOwner)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Test-Role", models.RoleCustomer)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
