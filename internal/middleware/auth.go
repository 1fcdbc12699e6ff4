package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID  = "user_id"
	ContextClerkID = "clerk_id"
	ContextUser    = "user"
)

// TokenValidator is an interface for validating session tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.SessionClaims, error)
}

// AuthMiddleware verifies the bearer token and mirrors the caller into the
// users table before handing over to the route.
func AuthMiddleware(validator TokenValidator, users service.IUserService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, apperrors.NewUnauthorizedError("missing authorization header"))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, apperrors.NewUnauthorizedError("invalid authorization header format"))
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			log.Debug("rejected session token", zap.Error(err))
			AbortWithError(c, apperrors.NewUnauthorizedError("invalid or expired token"))
			return
		}

		user, err := users.EnsureUser(c.Request.Context(), claims.Identity())
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextClerkID, user.ClerkID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// UserID returns the authenticated user's id
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// CurrentUser returns the users row loaded for this request
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
