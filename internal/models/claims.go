package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserClaims is the JWT payload issued on login. Subject carries the account
// email; the role travels alongside so the middleware can run capability
// checks without a database read.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Capabilities []string  `json:"capabilities"`
}

// HasCapability checks if the claims include a specific capability.
func (c *UserClaims) HasCapability(capability string) bool {
	for _, cap := range c.Capabilities {
		if cap == capability {
			return true
		}
	}
	return false
}
