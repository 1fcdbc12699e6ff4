package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/config"
	"github.com/pageza/souschef/backend/internal/catalog"
	"github.com/pageza/souschef/backend/internal/mocks"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/router"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/testhelpers"
	"github.com/pageza/souschef/backend/internal/types"
)

const generatedRecipe = "Here you go:\n" + `{
	"name": "Lemony Chickpea Salad",
	"cuisine": "mediterranean",
	"ingredients": ["1 can chickpeas", "1 cucumber", "1 lemon", "olive oil"],
	"instructions": ["Rinse the chickpeas.", "Chop the cucumber.", "Toss with lemon juice and oil."],
	"servings": 2
}`

type stack struct {
	router     *gin.Engine
	generation *mocks.MockChatModel
	assistant  *mocks.MockChatModel
	agent      *mocks.MockRecipeAgent
	token      string
}

func newStack(t *testing.T, opts ...func(*config.Config)) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	db := testhelpers.SetupTestDB(t)
	client, _ := testhelpers.SetupRedis(t)

	tokens, err := service.NewAuthService(config.AuthConfig{DevSecret: testhelpers.DevSecret})
	require.NoError(t, err)

	c, err := catalog.Load("")
	require.NoError(t, err)

	s := &stack{
		generation: new(mocks.MockChatModel),
		assistant:  new(mocks.MockChatModel),
		agent:      new(mocks.MockRecipeAgent),
		token:      testhelpers.SignDevToken(t, testhelpers.DevSecret, testhelpers.FakeIdentity(), time.Hour),
	}

	cfg := &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: []string{"*"}},
		Auth:      config.AuthConfig{WebhookSecret: "whsec_test"},
		RateLimit: config.RateLimitConfig{ChatPerHour: 2, GeneratePerHour: 5, PublicRPS: 100, PublicBurst: 100},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s.router, err = router.SetupRouter(router.Dependencies{
		Config:      cfg,
		Log:         log,
		DB:          db,
		Redis:       client,
		Tokens:      tokens,
		Users:       service.NewUserService(db, log),
		Preferences: service.NewPreferencesService(db, log),
		Search:      service.NewSearchService(s.agent, client, log),
		Generator:   service.NewGeneratorService(s.generation, client, log),
		Chat:        service.NewChatService(s.assistant, nil, nil, client, log),
		Favorites:   service.NewFavoritesService(db, log),
		Catalog:     c,
		Recommender: catalog.NewRecommender(c, catalog.NewRedisSeenStore(client)),
	})
	require.NoError(t, err)
	return s
}

func (s *stack) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRouterEndToEnd(t *testing.T) {
	s := newStack(t)

	t.Run("health and metrics are public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil, false).Code)
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", nil, false).Code)
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/recipes/cat-1", nil, false).Code)
	})

	t.Run("protected routes need a session", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/me", nil, false).Code)
	})

	var userID string
	t.Run("first request mirrors the user once", func(t *testing.T) {
		var first, second models.User
		w := s.do(t, http.MethodGet, "/api/v1/me", nil, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

		w = s.do(t, http.MethodGet, "/api/v1/me", nil, true)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

		assert.Equal(t, first.ID, second.ID)
		assert.False(t, first.Onboarded)
		userID = first.ID.String()
	})

	t.Run("preferences", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/api/v1/preferences", types.UpdatePreferencesRequest{
			DietaryPreferences: []string{"vegetarian"},
		}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do(t, http.MethodPut, "/api/v1/preferences", types.UpdatePreferencesRequest{
			DietaryPreferences: []string{"Vegetarian"},
			CuisinePreferences: []string{"italian", "indian"},
			Allergies:          []string{"peanut"},
			CookingTime:        models.CookingTimeQuick,
		}, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"onboarded":true`)
		assert.Contains(t, w.Body.String(), `"dietary_preferences":["vegetarian"]`)
	})

	t.Run("for you never repeats", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 3; i++ {
			w := s.do(t, http.MethodGet, "/api/v1/recipes/for-you?session_id=feed-1&page_size=5", nil, true)
			require.Equal(t, http.StatusOK, w.Code)
			var page types.RecipePage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			for _, r := range page.Recipes {
				assert.False(t, seen[r.ID], "recipe %s repeated", r.ID)
				assert.Contains(t, r.Tags, "vegetarian")
				seen[r.ID] = true
			}
		}
	})

	t.Run("generate then save the draft", func(t *testing.T) {
		s.generation.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(generatedRecipe, nil).Once()

		w := s.do(t, http.MethodPost, "/api/v1/recipes/generate", types.GenerateRequest{Prompt: "something fresh"}, true)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var draft service.RecipeDraft
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draft))
		assert.Equal(t, userID, draft.UserID)
		assert.Equal(t, "Lemony Chickpea Salad", draft.Recipe.Title)

		w = s.do(t, http.MethodPost, "/api/v1/saved", types.SaveRecipeRequest{DraftID: draft.ID}, true)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/recipes/drafts/"+draft.ID, nil, true).Code)

		w = s.do(t, http.MethodGet, "/api/v1/saved/search?q=chickpea", nil, true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Lemony Chickpea Salad")
	})

	t.Run("chat is rate limited per user", func(t *testing.T) {
		s.assistant.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("Use a big pot of salted water.", nil)

		for i := 0; i < 2; i++ {
			w := s.do(t, http.MethodPost, "/api/v1/chat/messages", types.ChatMessageRequest{SessionID: "c1", Message: "pasta tips?"}, true)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}
		w := s.do(t, http.MethodPost, "/api/v1/chat/messages", types.ChatMessageRequest{SessionID: "c1", Message: "more?"}, true)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		w = s.do(t, http.MethodGet, "/api/v1/chat/sessions/c1", nil, true)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Messages []service.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Messages, 4)
	})
}

func TestPublicRateLimitClientIP(t *testing.T) {
	tightLimit := func(cfg *config.Config) {
		cfg.RateLimit.PublicRPS = 0.001
		cfg.RateLimit.PublicBurst = 2
	}

	// blocked sends 20 requests from one connection, each claiming a
	// different client in X-Forwarded-For
	blocked := func(s *stack) int {
		n := 0
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
			req.RemoteAddr = "198.51.100.7:4000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				n++
			}
		}
		return n
	}

	t.Run("forwarded header ignored by default", func(t *testing.T) {
		s := newStack(t, tightLimit)
		assert.Equal(t, 18, blocked(s))
	})

	t.Run("forwarded header honoured from trusted proxy", func(t *testing.T) {
		s := newStack(t, tightLimit, func(cfg *config.Config) {
			cfg.Server.TrustedProxies = []string{"198.51.100.0/24"}
		})
		assert.Equal(t, 0, blocked(s))
	})

	t.Run("invalid proxy rejected", func(t *testing.T) {
		_, err := router.SetupRouter(router.Dependencies{
			Config: &config.Config{Server: config.ServerConfig{TrustedProxies: []string{"not-an-ip"}}},
			Log:    zap.NewNop(),
		})
		assert.Error(t, err)
	})
}
