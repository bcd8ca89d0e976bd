package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/travelbook/internal/models"
	"github.com/example/travelbook/internal/utils"
)

const (
	userContextKey   = "currentUser"
	userIDContextKey = "currentUserID"
)

// UserLoader resolves a user id to an account record. Injected so the
// middleware can be exercised without a live database.
type UserLoader func(c *fiber.Ctx, id uuid.UUID) (*models.User, error)

// GormUserLoader builds a UserLoader backed by the database.
func GormUserLoader(db *gorm.DB) UserLoader {
	return func(c *fiber.Ctx, id uuid.UUID) (*models.User, error) {
		var user models.User
		if err := db.WithContext(c.Context()).First(&user, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
}

// Auth resolves bearer tokens to loaded user accounts.
type Auth struct {
	secret string
	load   UserLoader
}

// NewAuth constructs the authentication middleware.
func NewAuth(secret string, load UserLoader) *Auth {
	return &Auth{secret: secret, load: load}
}

// Authenticate validates the bearer token and loads the account into the
// request context. Inactive accounts get 401, locked accounts get 423.
func (a *Auth) Authenticate(c *fiber.Ctx) error {
	user, err := a.resolve(c)
	if err != nil {
		return err
	}

	c.Locals(userContextKey, user)
	c.Locals(userIDContextKey, user.ID)
	return c.Next()
}

// Optional performs the same resolution as Authenticate but never fails
// the request; anonymous callers simply proceed without an identity.
func (a *Auth) Optional(c *fiber.Ctx) error {
	if user, err := a.resolve(c); err == nil {
		c.Locals(userContextKey, user)
		c.Locals(userIDContextKey, user.ID)
	}
	return c.Next()
}

func (a *Auth) resolve(c *fiber.Ctx) (*models.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "access denied: no token provided")
	}

	token := authHeader
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "access denied: invalid token format")
	}

	userID, err := utils.ParseToken(a.secret, token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "access denied: token has expired")
		}
		return nil, fiber.NewError(fiber.StatusUnauthorized, "access denied: invalid token")
	}

	user, err := a.load(c, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "access denied: user not found")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "access denied: account is deactivated")
	}

	if user.IsLocked() {
		return nil, fiber.NewError(fiber.StatusLocked, "account is temporarily locked due to failed login attempts")
	}

	return user, nil
}

// RequireRoles allows the request through only when the authenticated
// user's role is in the allow-list.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		role := user.EffectiveRole()
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}

		return fiber.NewError(fiber.StatusForbidden, "access denied: insufficient permissions")
	}
}

// RequireEmailVerification rejects callers whose email is not verified.
func RequireEmailVerification(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	if !user.IsEmailVerified {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success":                   false,
			"message":                   "email verification required",
			"requiresEmailVerification": true,
		})
	}

	return c.Next()
}

// CurrentUser extracts the authenticated user from context.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	if user, ok := c.Locals(userContextKey).(*models.User); ok {
		return user, true
	}
	return nil, false
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	if id, ok := c.Locals(userIDContextKey).(uuid.UUID); ok {
		return id, true
	}
	return uuid.Nil, false
}
