package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/souschef/backend/internal/api"
	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/mocks"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/testhelpers"
	"github.com/pageza/souschef/backend/internal/types"
)

func TestGeneratorHandler(t *testing.T) {
	user := testUser()
	draft := &service.RecipeDraft{
		ID:        "d1",
		UserID:    user.ID.String(),
		Prompt:    "a quick lentil curry",
		Recipe:    testhelpers.FakeRecipe(models.SourceGenerated),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	t.Run("generate", func(t *testing.T) {
		gen := new(mocks.MockGeneratorService)
		r := newRouter(user, api.NewGeneratorHandler(gen, nil).RegisterRoutes)
		gen.On("Generate", mock.Anything, user.ID.String(), user.Preferences(), "a quick lentil curry").Return(draft, nil).Once()

		w := doJSON(t, r, http.MethodPost, "/api/v1/recipes/generate", types.GenerateRequest{Prompt: "a quick lentil curry"})

		require.Equal(t, http.StatusCreated, w.Code)
		var got service.RecipeDraft
		decode(t, w, &got)
		assert.Equal(t, "d1", got.ID)
		assert.Equal(t, draft.Recipe.Title, got.Recipe.Title)
	})

	t.Run("generate is rate limited", func(t *testing.T) {
		gen := new(mocks.MockGeneratorService)
		limiter := func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTooManyRequests)
		}
		r := newRouter(user, api.NewGeneratorHandler(gen, limiter).RegisterRoutes)

		w := doJSON(t, r, http.MethodPost, "/api/v1/recipes/generate", types.GenerateRequest{Prompt: "soup"})

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("prompt too long", func(t *testing.T) {
		gen := new(mocks.MockGeneratorService)
		r := newRouter(user, api.NewGeneratorHandler(gen, nil).RegisterRoutes)
		long := make([]byte, 1001)
		for i := range long {
			long[i] = 'a'
		}

		w := doJSON(t, r, http.MethodPost, "/api/v1/recipes/generate", types.GenerateRequest{Prompt: string(long)})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("drafts", func(t *testing.T) {
		gen := new(mocks.MockGeneratorService)
		r := newRouter(user, api.NewGeneratorHandler(gen, nil).RegisterRoutes)
		gen.On("GetDraft", mock.Anything, user.ID.String(), "d1").Return(draft, nil).Once()
		gen.On("GetDraft", mock.Anything, user.ID.String(), "gone").Return(nil, apperrors.NewNotFoundError("draft")).Once()
		gen.On("DeleteDraft", mock.Anything, user.ID.String(), "d1").Return(nil).Once()

		assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/api/v1/recipes/drafts/d1", nil).Code)
		assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/v1/recipes/drafts/gone", nil).Code)
		assert.Equal(t, http.StatusNoContent, doJSON(t, r, http.MethodDelete, "/api/v1/recipes/drafts/d1", nil).Code)
		gen.AssertExpectations(t)
	})
}
