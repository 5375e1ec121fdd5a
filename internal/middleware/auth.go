package middleware

import (
	"net/http"
	"raffle-platform/internal/auth"
	"raffle-platform/internal/model"
	"raffle-platform/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// RequireAuth 解析 Bearer token，驗證成功後把 actor 放進 context
func RequireAuth(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing bearer token",
			})
			return
		}

		actor, err := verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			logger.WithComponent("middleware").Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAdmin 需放在 RequireAuth 之後
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Forbidden",
			})
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

// SetActor 測試時直接注入身分
func SetActor(actor model.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, actor)
		c.Next()
	}
}
