package middleware

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/rick1290/estuary-auth/config"
	"github.com/rick1290/estuary-auth/internal/models"
	"github.com/rick1290/estuary-auth/internal/services"
	"github.com/rick1290/estuary-auth/internal/session"
)

// sessionStateKey is the gin context key holding the resolved *models.TokenState.
const sessionStateKey = "session_state"

// Session decodes the session cookie, runs the refresh-on-read lifecycle, and
// rewrites the cookie whenever the state changed. Requests without a valid
// cookie proceed with no session; downstream handlers decide whether that is
// acceptable.
func Session(cfg *config.Config, codec *session.Codec, sessions services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(cfg.SessionCookie)
		if err != nil {
			c.Next()
			return
		}

		state, err := codec.Decode(value)
		if err != nil {
			// Tampered or expired envelope: drop it rather than 500.
			log.Printf("Session: discarding undecodable cookie for %s %s", c.Request.Method, c.Request.URL.Path)
			session.ClearCookie(c, cfg)
			c.Next()
			return
		}

		resolved, changed := sessions.Resolve(c.Request.Context(), state)
		if changed {
			if encoded, err := codec.Encode(resolved); err != nil {
				log.Printf("Session: failed to encode rotated state: %v", err)
			} else {
				session.WriteCookie(c, cfg, encoded)
			}
		}

		c.Set(sessionStateKey, resolved)
		c.Next()
	}
}

// StateFromContext returns the token state attached by Session, or nil when
// the request carried no usable session cookie.
func StateFromContext(c *gin.Context) *models.TokenState {
	value, exists := c.Get(sessionStateKey)
	if !exists {
		return nil
	}
	state, ok := value.(*models.TokenState)
	if !ok {
		return nil
	}
	return state
}

// SetState replaces the state attached to the current request. Used by
// handlers that mutate the session mid-request (login, force update).
func SetState(c *gin.Context, state *models.TokenState) {
	c.Set(sessionStateKey, state)
}
