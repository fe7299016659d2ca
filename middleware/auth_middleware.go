package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/utils"
)

const (
	ContextUserKey  = "currentUser"
	ContextTokenKey = "accessToken"
)

// AuthMiddleware resolves the request identity from the bearer token. The
// user record is loaded fresh on every request so deactivation and password
// changes take effect immediately.
func AuthMiddleware(users database.UserStore, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.Verify(tokenStr, utils.TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown or deactivated user"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown or deactivated user"})
			return
		}

		if user.PasswordChangedAt != nil {
			// A token without iat cannot prove it predates the change. iat is
			// whole seconds on the wire, so the change time is compared at the
			// same precision or a token minted in the change's own second
			// would be rejected.
			if claims.IssuedAt == nil || user.PasswordChangedAt.Truncate(time.Second).After(claims.IssuedAt.Time) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "credentials changed, reauthenticate"})
				return
			}
		}

		c.Set(ContextUserKey, user.Sanitized())
		c.Set(ContextTokenKey, tokenStr)
		c.Next()
	}
}

// CurrentUser returns the identity attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, ok := c.Get(ContextUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
