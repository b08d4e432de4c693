package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xtito/network-state-bot/internal/config"
)

// APIKeyAuth validates the x-api-key header against the configured shared
// secret. Requests failing the check are rejected before any handler work.
func APIKeyAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("x-api-key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ServiceAPIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
