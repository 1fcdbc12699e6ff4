package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

type PreferencesHandler struct {
	preferences service.IPreferencesService
}

func NewPreferencesHandler(preferences service.IPreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferences: preferences}
}

func (h *PreferencesHandler) RegisterRoutes(router *gin.RouterGroup) {
	prefs := router.Group("/preferences")
	{
		prefs.GET("", h.GetPreferences)
		prefs.PUT("", h.UpdatePreferences)
		prefs.PATCH("/:field", h.PatchPreference)
	}
}

type preferencesResponse struct {
	models.Preferences
	Onboarded bool `json:"onboarded"`
}

func newPreferencesResponse(u *models.User) preferencesResponse {
	return preferencesResponse{Preferences: u.Preferences(), Onboarded: u.Onboarded}
}

func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	fresh, err := h.preferences.Get(c.Request.Context(), user.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPreferencesResponse(fresh))
}

// UpdatePreferences replaces every preference field. Dietary and cuisine
// lists must both be non-empty.
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.UpdatePreferencesRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.preferences.Update(c.Request.Context(), user.ID, &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPreferencesResponse(updated))
}

// PatchPreference replaces one field, given either as a list in "values"
// or as a single "value"
func (h *PreferencesHandler) PatchPreference(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.PatchPreferenceRequest
	if !bindJSON(c, &req) {
		return
	}

	values := req.Values
	if len(values) == 0 && strings.TrimSpace(req.Value) != "" {
		values = []string{req.Value}
	}

	updated, err := h.preferences.Patch(c.Request.Context(), user.ID, c.Param("field"), values)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPreferencesResponse(updated))
}
