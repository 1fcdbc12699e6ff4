package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/apperrors"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookAuth checks the shared secret the identity provider sends with
// user lifecycle events
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			AbortWithError(c, apperrors.New(apperrors.CodeServiceUnavailable, "webhooks are not configured", ""))
			return
		}
		got := c.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			AbortWithError(c, apperrors.NewUnauthorizedError("invalid webhook secret"))
			return
		}
		c.Next()
	}
}
