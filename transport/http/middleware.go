package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/smartwallet/service"
)

// AdminMiddleware creates middleware that validates admin bearer tokens
func AdminMiddleware(walletService *service.WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		session, err := walletService.ValidateAdminToken(c.Request.Context(), auth[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("adminSubject", session.Subject)

		c.Next()
	}
}
