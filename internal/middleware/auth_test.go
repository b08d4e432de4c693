package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xtito/network-state-bot/internal/config"
)

func setupAuthRouter(secret string, hit *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth(&config.Config{ServiceAPIKey: secret}))
	r.POST("/messages", func(c *gin.Context) {
		*hit = true
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestAPIKeyAuthMissingKey(t *testing.T) {
	hit := false
	router := setupAuthRouter("secret", &hit)

	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.False(t, hit, "handler must not run without a valid api key")
}

func TestAPIKeyAuthWrongKey(t *testing.T) {
	hit := false
	router := setupAuthRouter("secret", &hit)

	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	req.Header.Set("x-api-key", "not-the-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, hit)
}

func TestAPIKeyAuthValidKey(t *testing.T) {
	hit := false
	router := setupAuthRouter("secret", &hit)

	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hit)
}
