package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
)

const RefreshCookieName = "refreshToken"

const refreshCookiePath = "/auth"

// SetRefreshCookie delivers the refresh token as an HTTP-only strict-same-site
// cookie scoped to the auth routes; Secure outside development.
func SetRefreshCookie(c *gin.Context, cfg *config.Config, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.RefreshTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearRefreshCookie(c *gin.Context, cfg *config.Config) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}
