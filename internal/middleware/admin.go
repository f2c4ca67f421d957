package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/letmeget/swapgate/internal/config"
)

const HeaderAdminKey = "X-Admin-Key"

// AdminMiddleware guards dev-ledger administration. With no admin key
// configured the admin routes are closed.
func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || cfg.Auth.AdminKey == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin key not configured"})
			c.Abort()
			return
		}
		given := c.GetHeader(HeaderAdminKey)
		if subtle.ConstantTimeCompare([]byte(given), []byte(cfg.Auth.AdminKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
