package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
)

// RequireRoles restricts a route to the given roles. It composes strictly
// after AuthMiddleware and never resolves identity itself.
func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		for _, role := range allowed {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}
