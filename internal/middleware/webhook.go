package middleware

import (
	"crypto/hmac"
	"net/http"

	"github.com/gin-gonic/gin"
)

const WebhookTokenHeader = "X-Callback-Token"

// RequireWebhookToken secret 為空時一律拒絕
func RequireWebhookToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || !hmac.Equal([]byte(c.GetHeader(WebhookTokenHeader)), []byte(secret)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid callback token",
			})
			return
		}
		c.Next()
	}
}
