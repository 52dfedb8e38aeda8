package middleware

import (
	"net/http"
	"strings"

	"clicker_empire/internal/logger"
	"clicker_empire/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT requires a Bearer token and stores the player id under "user_id".
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		ctx := logger.IntoContext(c.Request.Context(), logger.FromContext(c.Request.Context()).With("player_id", userID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
