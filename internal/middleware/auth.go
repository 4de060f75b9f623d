// Package middleware provides HTTP middleware components for the application:
// bearer-token authentication, capability-based authorization, and rate
// limiting for the authentication endpoints.
package middleware

import (
	"log"
	"strings"

	"accord/internal/auth"
	"accord/internal/models"
	"accord/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates bearer tokens and adds the decoded claims to the
// request context.
type AuthMiddleware struct {
	tokens *auth.TokenIssuer
}

func NewAuthMiddleware(tokens *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handler checks for a Bearer token in the Authorization header, verifies it,
// and stores the claims under "claims" in Locals.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := m.tokens.DecodeToken(tokenString)
	if err != nil {
		log.Printf("token validation error: %v", err)
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)

	return c.Next()
}

// RequireCapability returns a middleware that rejects requests whose claims
// lack the given capability. Authorization is a membership test against the
// role's capability set, not a role string comparison.
func RequireCapability(capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return utils.Unauthorized(c, "unauthorized")
		}

		if claims.HasCapability(capability) {
			return c.Next()
		}

		log.Printf("access denied: role %s lacks %s", claims.Role, capability)
		return utils.Forbidden(c, "insufficient permissions")
	}
}
