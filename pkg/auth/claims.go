// Package auth guards the marketplace pages. It decides from the session
// whether a browser may see a page and inspects backend-issued JWTs for
// expiry (and, when a JWKS URL is configured, signature).
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/bidzilla/bidzilla-web/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// SessionKey is the context key for the authorized session.
	SessionKey contextKey = "session"
)

// Claims is the payload of a marketplace backend token.
// It embeds RegisteredClaims for exp and friends.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// MarketplaceRole returns the normalized role claim.
func (c *Claims) MarketplaceRole() models.Role {
	if c == nil {
		return ""
	}
	return models.ParseRole(c.Role)
}
