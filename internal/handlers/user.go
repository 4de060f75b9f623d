package handlers

import (
	"errors"

	"accord/internal/models"
	"accord/internal/services/account"
	"accord/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	accounts account.Service
}

func NewUserHandler(accounts account.Service) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Register creates a new account. Password strength and duplicate email are
// the interesting rejections; both are user-correctable 400s.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input account.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	user, err := h.accounts.Register(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrWeakPassword):
			return utils.BadRequest(c, "Password does not meet strength requirements")
		case errors.Is(err, account.ErrEmailExists):
			return utils.BadRequest(c, "Email already exists")
		case errors.Is(err, account.ErrUsernameExists):
			return utils.BadRequest(c, "Username already taken")
		case errors.Is(err, account.ErrValidation):
			return utils.BadRequest(c, "Email and username are required")
		default:
			return utils.InternalError(c, "Registration failed")
		}
	}

	return utils.Created(c, user)
}

// GetProfile returns the authenticated user's own profile.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	user, err := h.accounts.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalError(c, "Failed to fetch profile")
	}

	return utils.Success(c, user)
}

// UpdateProfile applies a partial update to the authenticated user's own
// profile. At least one field must be present.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var update account.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	user, err := h.accounts.UpdateProfile(c.Context(), claims.UserID, update)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrValidation):
			return utils.BadRequest(c, "At least one profile field is required")
		case errors.Is(err, account.ErrNotFound):
			return utils.NotFound(c, "User not found")
		default:
			return utils.InternalError(c, "Profile update failed")
		}
	}

	return utils.Success(c, user)
}

// ResetPassword replaces the authenticated user's password and clears any
// lockout state alongside it.
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	if err := h.accounts.ResetPassword(c.Context(), claims.UserID, input.NewPassword); err != nil {
		switch {
		case errors.Is(err, account.ErrWeakPassword):
			return utils.BadRequest(c, "Password does not meet strength requirements")
		case errors.Is(err, account.ErrNotFound):
			return utils.NotFound(c, "User not found")
		default:
			return utils.InternalError(c, "Password reset failed")
		}
	}

	return utils.Success(c, fiber.Map{"message": "Password reset successfully"})
}
