package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Subject string
	Email   string
	Roles   []string
}

// AccessTokenClaims is the token issued by the identity provider. The caller's
// username is their email.
type AccessTokenClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Username returns the identity used to scope carts, wishlists, addresses
// and orders. Emails are lowercased here and nowhere else; subjects are
// opaque and keep their case.
func (c *AccessTokenClaims) Username() string {
	if email := strings.TrimSpace(c.Email); email != "" {
		return strings.ToLower(email)
	}
	return c.Subject
}

// HasRole reports whether the token carries role.
func (c *AccessTokenClaims) HasRole(role string) bool {
	for _, candidate := range c.Roles {
		if strings.EqualFold(candidate, role) {
			return true
		}
	}
	return false
}
