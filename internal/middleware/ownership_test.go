package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/travelbook/internal/models"
)

func ownershipApp(owner uuid.UUID, trips map[uuid.UUID]*models.Trip) *fiber.App {
	fetch := func(c *fiber.Ctx, id uuid.UUID) (*models.Trip, error) {
		if trip, ok := trips[id]; ok {
			return trip, nil
		}
		return nil, gorm.ErrRecordNotFound
	}

	app := fiber.New()
	app.Get("/trips/:id", func(c *fiber.Ctx) error {
		if owner != uuid.Nil {
			c.Locals(userIDContextKey, owner)
		}
		return c.Next()
	}, RequireOwnership(fetch, "id"), func(c *fiber.Ctx) error {
		trip, ok := Resource[*models.Trip](c)
		if !ok {
			return fiber.NewError(http.StatusInternalServerError, "resource missing")
		}
		return c.JSON(fiber.Map{"title": trip.Title})
	})
	return app
}

func TestRequireOwnershipAllowsOwner(t *testing.T) {
	owner := uuid.New()
	trip := &models.Trip{UserID: owner, Title: "Lisbon"}
	trip.ID = uuid.New()

	app := ownershipApp(owner, map[uuid.UUID]*models.Trip{trip.ID: trip})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/trips/"+trip.ID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireOwnershipRejectsStranger(t *testing.T) {
	trip := &models.Trip{UserID: uuid.New(), Title: "Lisbon"}
	trip.ID = uuid.New()

	app := ownershipApp(uuid.New(), map[uuid.UUID]*models.Trip{trip.ID: trip})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/trips/"+trip.ID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireOwnershipUnknownResource(t *testing.T) {
	app := ownershipApp(uuid.New(), nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequireOwnershipBadID(t *testing.T) {
	app := ownershipApp(uuid.New(), nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/trips/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequireOwnershipUnauthenticated(t *testing.T) {
	app := ownershipApp(uuid.Nil, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
