package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

// WebhookHandler applies identity provider user events to the users table
type WebhookHandler struct {
	users service.IUserService
}

func NewWebhookHandler(users service.IUserService) *WebhookHandler {
	return &WebhookHandler{users: users}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup, secret string) {
	router.POST("/webhooks/clerk", middleware.WebhookAuth(secret), h.Clerk)
}

func (h *WebhookHandler) Clerk(c *gin.Context) {
	var event types.ClerkWebhookEvent
	if !bindJSON(c, &event) {
		return
	}
	if err := h.users.HandleWebhook(c.Request.Context(), &event); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
