package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/config"
	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/mocks"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/testhelpers"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *apperrors.AppError {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validator, err := service.NewAuthService(config.AuthConfig{DevSecret: testhelpers.DevSecret})
	require.NoError(t, err)

	newRouter := func(users *mocks.MockUserService) *gin.Engine {
		r := gin.New()
		r.Use(middleware.AuthMiddleware(validator, users, zap.NewNop()))
		r.GET("/me", func(c *gin.Context) {
			id, ok := middleware.UserID(c)
			require.True(t, ok)
			user, ok := middleware.CurrentUser(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"id": id, "clerk_id": c.GetString(middleware.ContextClerkID), "email": user.Email})
		})
		return r
	}

	t.Run("missing header", func(t *testing.T) {
		users := new(mocks.MockUserService)
		w := httptest.NewRecorder()
		newRouter(users).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.CodeUnauthorized, decodeError(t, w).Code)
		users.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		users := new(mocks.MockUserService)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		newRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		users := new(mocks.MockUserService)
		token := testhelpers.SignDevToken(t, testhelpers.DevSecret, testhelpers.FakeIdentity(), -time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		appErr := decodeError(t, w)
		assert.Equal(t, "invalid or expired token", appErr.Message)
		assert.Empty(t, appErr.Details)
		assert.NotContains(t, w.Body.String(), "token has expired")
		users.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
	})

	t.Run("malformed token gets the same message", func(t *testing.T) {
		users := new(mocks.MockUserService)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		w := httptest.NewRecorder()
		newRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid or expired token", decodeError(t, w).Message)
	})

	t.Run("mirrors the caller", func(t *testing.T) {
		identity := testhelpers.FakeIdentity()
		user := &models.User{ID: uuid.New(), ClerkID: identity.ClerkID, Email: identity.Email}
		users := new(mocks.MockUserService)
		users.On("EnsureUser", mock.Anything, identity).Return(user, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+testhelpers.SignDevToken(t, testhelpers.DevSecret, identity, time.Hour))
		w := httptest.NewRecorder()
		newRouter(users).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, user.ID.String(), body["id"])
		assert.Equal(t, identity.ClerkID, body["clerk_id"])
		assert.Equal(t, identity.Email, body["email"])
		users.AssertExpectations(t)
	})

	t.Run("mirror failure", func(t *testing.T) {
		identity := testhelpers.FakeIdentity()
		users := new(mocks.MockUserService)
		users.On("EnsureUser", mock.Anything, identity).
			Return(nil, apperrors.NewValidationError("email is required")).Once()

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+testhelpers.SignDevToken(t, testhelpers.DevSecret, identity, time.Hour))
		w := httptest.NewRecorder()
		newRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "email is required", decodeError(t, w).Details)
	})
}
