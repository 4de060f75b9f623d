package handlers

import (
	"errors"

	"accord/internal/services/account"
	"accord/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxUserPageSize = 100

// AdminHandler serves the user-management endpoints guarded by the
// users:manage capability.
type AdminHandler struct {
	accounts account.Service
}

func NewAdminHandler(accounts account.Service) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// ListUsers returns a paginated user listing.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pagination := utils.GetPagination(c, 1, 10)
	if pagination.Limit > maxUserPageSize {
		pagination.Limit = maxUserPageSize
	}

	users, total, err := h.accounts.List(c.Context(), pagination.Offset, pagination.Limit)
	if err != nil {
		return utils.InternalError(c, "Failed to list users")
	}

	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(users, pagination))
}

// GetUser fetches a user by id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	user, err := h.accounts.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalError(c, "Failed to fetch user")
	}

	return utils.Success(c, user)
}

// UpdateUser applies an administrative partial update.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var update account.AdminUpdate
	if err := c.BodyParser(&update); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	user, err := h.accounts.Update(c.Context(), id, update)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrValidation):
			return utils.BadRequest(c, "At least one field is required")
		case errors.Is(err, account.ErrWeakPassword):
			return utils.BadRequest(c, "Password does not meet strength requirements")
		case errors.Is(err, account.ErrNotFound):
			return utils.NotFound(c, "User not found")
		default:
			return utils.InternalError(c, "User update failed")
		}
	}

	return utils.Success(c, user)
}

// DeleteUser removes a user. Hard delete, no soft-delete semantics.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	if err := h.accounts.Delete(c.Context(), id); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalError(c, "User delete failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateProfessionalStatus toggles a user's professional flag. The path id
// must match the id in the body.
func (h *AdminHandler) UpdateProfessionalStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var input struct {
		UserID         uuid.UUID `json:"user_id"`
		IsProfessional bool      `json:"is_professional"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if input.UserID != id {
		return utils.BadRequest(c, "User ID mismatch")
	}

	user, err := h.accounts.UpdateProfessionalStatus(c.Context(), id, input.IsProfessional)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalError(c, "Professional status update failed")
	}

	return utils.Success(c, user)
}

// UnlockUser performs the manual administrative unlock.
func (h *AdminHandler) UnlockUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	unlocked, err := h.accounts.Unlock(c.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalError(c, "Unlock failed")
	}
	if !unlocked {
		return utils.BadRequest(c, "Account is not locked")
	}

	return utils.Success(c, fiber.Map{"message": "Account unlocked"})
}
