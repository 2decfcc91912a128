package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rick1290/estuary-auth/config"
)

// CSRFCookie is the double-submit cookie paired with the X-CSRF-Token header.
const CSRFCookie = "estuary.csrf"

// IssueCSRFToken sets a fresh CSRF cookie and returns the token so the
// handler can echo it in the response body.
func IssueCSRFToken(c *gin.Context, cfg *config.Config) string {
	token := uuid.NewString()
	c.SetCookie(
		CSRFCookie,
		token,
		int(cfg.SessionMaxAge.Seconds()),
		"/",
		cfg.CookieDomain,
		cfg.Environment == "production",
		true, // HTTP only
	)
	return token
}

// CSRF enforces the double-submit check on state-changing requests: the
// X-CSRF-Token header must match the CSRF cookie issued by /auth/csrf.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(CSRFCookie)
		header := c.GetHeader("X-CSRF-Token")

		if err != nil || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			log.Printf("CSRF: token mismatch for %s %s", c.Request.Method, c.Request.URL.Path)
			c.JSON(http.StatusForbidden, gin.H{"error": "CSRF token missing or invalid"})
			c.Abort()
			return
		}

		c.Next()
	}
}
