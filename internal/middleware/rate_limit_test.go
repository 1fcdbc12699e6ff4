package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/testhelpers"
)

func limitedRouter(rl *middleware.RateLimiter, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	})
	r.POST("/chat", rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("blocks after the limit", func(t *testing.T) {
		client, _ := testhelpers.SetupRedis(t)
		rl := middleware.NewChatRateLimiter(client, 2, zap.NewNop())
		r := limitedRouter(rl, uuid.New())

		for i, want := range []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
			assert.Equal(t, want, w.Code, "request %d", i+1)
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
			if want == http.StatusTooManyRequests {
				assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
				assert.NotEmpty(t, w.Header().Get("Retry-After"))
				assert.Equal(t, apperrors.CodeTooManyRequests, decodeError(t, w).Code)
			}
		}
	})

	t.Run("users are counted separately", func(t *testing.T) {
		client, _ := testhelpers.SetupRedis(t)
		rl := middleware.NewGenerateRateLimiter(client, 1, zap.NewNop())

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			limitedRouter(rl, uuid.New()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
			assert.Equal(t, http.StatusNoContent, w.Code)
		}
	})

	t.Run("window keys expire", func(t *testing.T) {
		client, mr := testhelpers.SetupRedis(t)
		rl := middleware.NewChatRateLimiter(client, 5, zap.NewNop())
		userID := uuid.New()

		w := httptest.NewRecorder()
		limitedRouter(rl, userID).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)

		keys := mr.Keys()
		if assert.Len(t, keys, 1) {
			assert.Contains(t, keys[0], "rate_limit:chat:"+userID.String())
			assert.LessOrEqual(t, mr.TTL(keys[0]), time.Hour)
		}
	})

	t.Run("fails open when redis is down", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
		defer client.Close()
		rl := middleware.NewChatRateLimiter(client, 1, zap.NewNop())

		w := httptest.NewRecorder()
		limitedRouter(rl, uuid.New()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		client, _ := testhelpers.SetupRedis(t)
		rl := middleware.NewChatRateLimiter(client, 1, zap.NewNop())
		r := gin.New()
		r.POST("/chat", rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
