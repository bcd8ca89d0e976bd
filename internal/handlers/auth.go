package handlers

import (
	"errors"
	"time"
	"unicode"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/travelbook/internal/config"
	"github.com/example/travelbook/internal/middleware"
	"github.com/example/travelbook/internal/models"
	"github.com/example/travelbook/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type addressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city" validate:"required,min=2"`
	State   string `json:"state" validate:"required,min=2"`
	Country string `json:"country" validate:"required,min=2"`
	ZipCode string `json:"zip_code" validate:"required,min=3"`
}

type registerRequest struct {
	FirstName   string         `json:"first_name" validate:"required,min=2,max=50"`
	LastName    string         `json:"last_name" validate:"required,min=2,max=50"`
	Email       string         `json:"email" validate:"required,email"`
	Phone       string         `json:"phone" validate:"required,e164"`
	Password    string         `json:"password" validate:"required,min=8"`
	DateOfBirth string         `json:"date_of_birth" validate:"required"`
	Gender      string         `json:"gender" validate:"required,oneof=male female other prefer_not_to_say"`
	Nationality string         `json:"nationality" validate:"required,min=2"`
	Address     addressRequest `json:"address" validate:"required"`
}

// Register creates a new user account and returns a session token.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	if !passwordMeetsPolicy(req.Password) {
		return utils.ValidationResponse(c, []utils.FieldError{{
			Field:   "password",
			Message: "must contain at least one uppercase letter, one lowercase letter, and one number",
		}})
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return utils.ValidationResponse(c, []utils.FieldError{{
			Field:   "date_of_birth",
			Message: "must be a valid date (YYYY-MM-DD)",
		}})
	}

	var existing models.User
	err = h.db.Where("email = ? OR phone = ?", req.Email, req.Phone).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists with this email or phone number")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		DateOfBirth:  &dob,
		Gender:       req.Gender,
		Nationality:  req.Nationality,
		Address: models.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			Country: req.Address.Country,
			ZipCode: req.Address.ZipCode,
		},
		Role:     models.RoleCustomer,
		IsActive: true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "user already exists with this email or phone number")
		}
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "user registered successfully",
		"token":   token,
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an existing user. Failed attempts count toward the
// account lockout.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}
		return err
	}

	if user.IsLocked() {
		return fiber.NewError(fiber.StatusLocked, "account is temporarily locked due to failed login attempts")
	}

	if !user.IsActive {
		return fiber.NewError(fiber.StatusUnauthorized, "account is deactivated")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		user.RegisterFailedLogin(time.Now())
		if err := h.db.Model(&user).Select("login_attempts", "lock_until").Updates(&user).Error; err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
	}

	now := time.Now()
	user.ResetLoginAttempts()
	user.LastLogin = &now
	if err := h.db.Model(&user).Select("login_attempts", "lock_until", "last_login").Updates(map[string]any{
		"login_attempts": 0,
		"lock_until":     nil,
		"last_login":     now,
	}).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "login successful",
		"token":   token,
		"user":    user,
	})
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	return c.JSON(fiber.Map{"success": true, "user": user})
}

type updateProfileRequest struct {
	FirstName   *string         `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName    *string         `json:"last_name" validate:"omitempty,min=2,max=50"`
	Phone       *string         `json:"phone" validate:"omitempty,e164"`
	Nationality *string         `json:"nationality" validate:"omitempty,min=2"`
	Address     *addressRequest `json:"address"`
}

// UpdateProfile applies allow-listed profile changes.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	if req.Phone != nil {
		var existing models.User
		err := h.db.Where("phone = ? AND id <> ?", *req.Phone, user.ID).First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, "phone number is already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		user.Phone = *req.Phone
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Nationality != nil {
		user.Nationality = *req.Nationality
	}
	if req.Address != nil {
		user.Address = models.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			Country: req.Address.Country,
			ZipCode: req.Address.ZipCode,
		}
	}

	if err := h.db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "phone number is already taken")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "profile updated successfully",
		"user":    user,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword replaces the account password after verifying the
// current one.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	if !passwordMeetsPolicy(req.NewPassword) {
		return utils.ValidationResponse(c, []utils.FieldError{{
			Field:   "new_password",
			Message: "must contain at least one uppercase letter, one lowercase letter, and one number",
		}})
	}

	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return fiber.NewError(fiber.StatusUnauthorized, "current password is incorrect")
	}

	if utils.CheckPassword(user.PasswordHash, req.NewPassword) {
		return fiber.NewError(fiber.StatusBadRequest, "new password must be different from current password")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "password changed successfully"})
}

// Logout acknowledges the logout; session tokens are stateless so the
// client simply discards its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "message": "logged out successfully"})
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// DeleteAccount soft-deletes the account after a password confirmation.
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req deleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if fieldErrors := utils.ValidateStruct(req); fieldErrors != nil {
		return utils.ValidationResponse(c, fieldErrors)
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "password is incorrect")
	}

	if err := h.db.Model(user).Update("is_active", false).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "account deactivated successfully"})
}

// passwordMeetsPolicy requires at least one uppercase letter, one
// lowercase letter and one digit.
func passwordMeetsPolicy(password string) bool {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
