package session

import (
	"github.com/gin-gonic/gin"

	"github.com/rick1290/estuary-auth/config"
)

// WriteCookie sets the session cookie on the response. The cookie is always
// HTTP-only; Secure is enabled outside development.
func WriteCookie(c *gin.Context, cfg *config.Config, value string) {
	c.SetCookie(
		cfg.SessionCookie,
		value,
		int(cfg.SessionMaxAge.Seconds()),
		"/",
		cfg.CookieDomain,
		cfg.Environment == "production",
		true, // HTTP only
	)
}

// ClearCookie removes the session cookie.
func ClearCookie(c *gin.Context, cfg *config.Config) {
	c.SetCookie(
		cfg.SessionCookie,
		"",
		-1,
		"/",
		cfg.CookieDomain,
		cfg.Environment == "production",
		true, // HTTP only
	)
}
