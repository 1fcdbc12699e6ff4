package testhelpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pageza/souschef/backend/internal/types"
)

// DevSecret is the HS256 secret test servers are configured with
const DevSecret = "test-dev-secret"

// SignDevToken issues an HS256 session token for identity
func SignDevToken(t *testing.T, secret string, identity types.Identity, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := types.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ClerkID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    identity.Email,
		Name:     identity.Name,
		ImageURL: identity.ImageURL,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}
