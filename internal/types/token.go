package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by an identity provider session token
type SessionClaims struct {
	jwt.RegisteredClaims
	Email           string `json:"email"`
	Name            string `json:"name"`
	ImageURL        string `json:"image_url"`
	AuthorizedParty string `json:"azp,omitempty"`
}

// Identity is the verified caller extracted from a session token
type Identity struct {
	ClerkID  string
	Email    string
	Name     string
	ImageURL string
}

// Identity returns the caller described by the claims
func (c *SessionClaims) Identity() Identity {
	return Identity{
		ClerkID:  c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		ImageURL: c.ImageURL,
	}
}
