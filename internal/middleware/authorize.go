package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance/internal/models"
	"attendance/internal/service"
)

// RequireActive lets through users allowed to use attendance features.
func RequireActive(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !users.CanAct(user) {
			reason := "account_pending"
			if user.Status == models.UserStatusBlocked {
				reason = "account_blocked"
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": reason})
			return
		}

		c.Next()
	}
}

func RequireAdmin(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !users.CanAdminister(user) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
