// Package handlers contains the fiber HTTP handlers. Handlers translate
// typed service errors onto the external error surface; security-sensitive
// paths return identical bodies across distinct internal causes.
package handlers

import (
	"errors"
	"log"

	"accord/internal/auth"
	"accord/internal/services/account"
	"accord/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// verificationEmailResponse is returned for every outcome of the
// request-verification-email endpoint so callers cannot probe which emails
// exist or are verified.
const verificationEmailResponse = "If your email exists and is not verified, a new verification email has been sent"

type AuthHandler struct {
	accounts account.Service
	tokens   *auth.TokenIssuer
}

func NewAuthHandler(accounts account.Service, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
	}
}

// Login authenticates a user and returns a bearer token. Every rejection is
// a uniform 401 except the locked case, which tells the user to wait.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "Email and password are required")
	}

	user, err := h.accounts.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAccountLocked):
			return utils.BadRequest(c, "Account locked due to too many failed login attempts. Try again later or request account unlock.")
		case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrEmailNotVerified):
			return utils.Unauthorized(c, "Incorrect email or password.")
		default:
			return utils.InternalError(c, "Authentication failed")
		}
	}

	accessToken, err := h.tokens.IssueToken(user)
	if err != nil {
		log.Printf("token issue failed for %s: %v", user.Email, err)
		return utils.InternalError(c, "Authentication failed")
	}

	return utils.Success(c, fiber.Map{
		"access_token": accessToken,
		"token_type":   "bearer",
	})
}

// VerifyEmail confirms email ownership with the token from the verification
// link.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid or expired verification token")
	}

	if err := h.accounts.VerifyEmail(c.Context(), id, c.Params("token")); err != nil {
		if errors.Is(err, account.ErrTokenInvalid) {
			return utils.BadRequest(c, "Invalid or expired verification token")
		}
		return utils.InternalError(c, "Verification failed")
	}

	return utils.Success(c, fiber.Map{"message": "Email verified successfully"})
}

// RequestVerificationEmail re-issues a verification token. The response body
// is identical whether or not the email exists or is already verified.
func (h *AuthHandler) RequestVerificationEmail(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil || input.Email == "" {
		return utils.BadRequest(c, "Email is required")
	}

	h.accounts.RequestVerificationEmail(c.Context(), input.Email)

	return utils.Success(c, fiber.Map{"message": verificationEmailResponse})
}
