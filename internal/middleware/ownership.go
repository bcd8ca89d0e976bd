package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const resourceContextKey = "currentResource"

// Owned is any resource that knows which user owns it.
type Owned interface {
	OwnerID() uuid.UUID
}

// Fetch loads a resource by id. Injected so ownership checks stay
// independent of the persistence layer.
type Fetch[T Owned] func(c *fiber.Ctx, id uuid.UUID) (T, error)

// GormFetch builds a Fetch that loads T by primary key.
func GormFetch[T any, PT interface {
	Owned
	*T
}](db *gorm.DB) Fetch[PT] {
	return func(c *fiber.Ctx, id uuid.UUID) (PT, error) {
		var resource T
		if err := db.WithContext(c.Context()).First(&resource, "id = ?", id).Error; err != nil {
			var zero PT
			return zero, err
		}
		return PT(&resource), nil
	}
}

// RequireOwnership loads the resource named by the id path parameter and
// rejects callers who do not own it. The loaded resource is stored in the
// request context so handlers do not fetch it twice.
func RequireOwnership[T Owned](fetch Fetch[T], idParam string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		id, err := uuid.Parse(c.Params(idParam))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid resource id")
		}

		resource, err := fetch(c, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "resource not found")
			}
			return err
		}

		if resource.OwnerID() != userID {
			return fiber.NewError(fiber.StatusForbidden, "access denied: you do not have permission to access this resource")
		}

		c.Locals(resourceContextKey, resource)
		return c.Next()
	}
}

// Resource extracts the resource loaded by RequireOwnership.
func Resource[T Owned](c *fiber.Ctx) (T, bool) {
	resource, ok := c.Locals(resourceContextKey).(T)
	return resource, ok
}
