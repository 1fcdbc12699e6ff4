package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/souschef/backend/internal/middleware"
)

func TestWebhookAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(secret string) *gin.Engine {
		r := gin.New()
		r.POST("/hook", middleware.WebhookAuth(secret), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"matching secret", "whsec", "whsec", http.StatusNoContent},
		{"wrong secret", "whsec", "nope", http.StatusUnauthorized},
		{"missing header", "whsec", "", http.StatusUnauthorized},
		{"not configured", "", "whsec", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hook", nil)
			if tt.header != "" {
				req.Header.Set(middleware.WebhookSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.secret).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRegisterValidators(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	type body struct {
		SkillLevel  string `json:"skill_level" binding:"omitempty,skill_level"`
		CookingTime string `json:"cooking_time" binding:"omitempty,cooking_time"`
	}
	r := gin.New()
	r.POST("/prefs", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := map[string]int{
		`{"skill_level":"advanced","cooking_time":"quick"}`: http.StatusOK,
		`{}`:                         http.StatusOK,
		`{"skill_level":"wizard"}`:   http.StatusBadRequest,
		`{"cooking_time":"forever"}`: http.StatusBadRequest,
	}
	for payload, want := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/prefs", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, payload)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CORS([]string{"http://localhost:8081"}))
	r.GET("/recipes", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/recipes", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8081", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
