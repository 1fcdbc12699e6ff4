package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

// ProfileHandler serves the caller's mirrored users row
type ProfileHandler struct {
	users service.IUserService
}

func NewProfileHandler(users service.IUserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/me")
	{
		me.GET("", h.GetProfile)
		me.PUT("", h.UpdateProfile)
		me.DELETE("", h.DeleteAccount)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteAccount soft deletes the row. The next authenticated request from
// the same identity restores it.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), user.ID); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
