package api_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/souschef/backend/internal/api"
	"github.com/pageza/souschef/backend/internal/testhelpers"
)

func TestHealthHandler(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	client, mr := testhelpers.SetupRedis(t)

	r := gin.New()
	api.NewHealthHandler(db, client).RegisterRoutes(r)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{"database":"ok","redis":"ok"}}`, w.Body.String())

	mr.Close()
	w = doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
}
