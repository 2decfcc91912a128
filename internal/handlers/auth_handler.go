package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rick1290/estuary-auth/config"
	"github.com/rick1290/estuary-auth/internal/middleware"
	"github.com/rick1290/estuary-auth/internal/models"
	"github.com/rick1290/estuary-auth/internal/services"
	"github.com/rick1290/estuary-auth/internal/session"
)

// AuthHandler handles the session lifecycle endpoints
type AuthHandler struct {
	cfg      *config.Config
	sessions services.SessionService
	codec    *session.Codec
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(cfg *config.Config, sessions services.SessionService, codec *session.Codec) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		sessions: sessions,
		codec:    codec,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates against the backend and establishes the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Every login failure looks the same to the client: no session.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !h.writeState(c, state) {
		return
	}

	middleware.SetState(c, state)
	c.JSON(http.StatusOK, models.NewSession(state))
}

// Logout clears the session cookie. The backend owns token revocation; the
// gateway only forgets the client-held state.
func (h *AuthHandler) Logout(c *gin.Context) {
	session.ClearCookie(c, h.cfg)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

// GetSession returns the current session, refreshed on read by the session
// middleware. Without a session it returns an empty object, not an error.
func (h *AuthHandler) GetSession(c *gin.Context) {
	state := middleware.StateFromContext(c)
	if state == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, models.NewSession(state))
}

// UpdateSession re-fetches the user snapshot from the backend and rewrites
// the cookie when anything changed
func (h *AuthHandler) UpdateSession(c *gin.Context) {
	state := middleware.StateFromContext(c)
	if state == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
		return
	}

	next, changed := h.sessions.UpdateUser(c.Request.Context(), state)
	if changed {
		if !h.writeState(c, next) {
			return
		}
		middleware.SetState(c, next)
	}

	c.JSON(http.StatusOK, models.NewSession(next))
}

// CSRFToken issues the double-submit token required by the POST endpoints
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	token := middleware.IssueCSRFToken(c, h.cfg)
	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}

// writeState encodes the state into the session cookie, failing the request
// on encoding errors
func (h *AuthHandler) writeState(c *gin.Context, state *models.TokenState) bool {
	encoded, err := h.codec.Encode(state)
	if err != nil {
		log.Printf("AuthHandler: failed to encode session state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to establish session"})
		return false
	}
	session.WriteCookie(c, h.cfg, encoded)
	return true
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, sessionMW, csrfMW, loginLimiter gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		auth.GET("/csrf", h.CSRFToken)
		auth.GET("/session", sessionMW, h.GetSession)
		auth.POST("/login", loginLimiter, csrfMW, h.Login)
		auth.POST("/logout", csrfMW, h.Logout)
		auth.POST("/session/update", sessionMW, csrfMW, h.UpdateSession)
	}
}
