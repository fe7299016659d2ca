package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/dto"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/middleware"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/utils"
)

// Unknown email, wrong password and deactivated account all surface this
// same message so callers cannot probe which accounts exist.
const errInvalidCredentials = "invalid credentials"

const errInvalidRefreshToken = "invalid refresh token"

// POST /auth/login
func Login(users database.UserStore, tokens *utils.TokenManager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		user, err := users.FindByEmail(c.Request.Context(), body.Email)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}
		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}

		accessToken, err := tokens.Issue(user.ID.Hex(), utils.TokenAccess)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
			return
		}
		refreshToken, err := tokens.Issue(user.ID.Hex(), utils.TokenRefresh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
			return
		}

		utils.SetRefreshCookie(c, cfg, refreshToken)
		c.JSON(http.StatusOK, gin.H{
			"accessToken": accessToken,
			"user":        user.Public(),
		})
	}
}

// POST /auth/refresh-token
//
// Stateless: the cookie token is trusted on signature, expiry and kind alone,
// plus the identity's active flag and passwordChangedAt. No rotation.
func Refresh(users database.UserStore, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(utils.RefreshCookieName)
		if err != nil || raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidRefreshToken})
			return
		}

		claims, err := tokens.Verify(raw, utils.TokenRefresh)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidRefreshToken})
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidRefreshToken})
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidRefreshToken})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidRefreshToken})
			return
		}
		if user.PasswordChangedAt != nil {
			if claims.IssuedAt == nil || user.PasswordChangedAt.Truncate(time.Second).After(claims.IssuedAt.Time) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidRefreshToken})
				return
			}
		}

		accessToken, err := tokens.Issue(user.ID.Hex(), utils.TokenAccess)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
	}
}

// POST /auth/logout
//
// Runs behind AuthMiddleware so only an authenticated holder can clear their
// own session cookie; there is no server-side session state to tear down.
func Logout(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.CurrentUser(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		utils.ClearRefreshCookie(c, cfg)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
