package handlers

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/rick1290/estuary-auth/internal/middleware"
	"github.com/rick1290/estuary-auth/internal/models"
)

// ProxyHandler forwards /api traffic to the Django backend with the bearer
// token injected. The session middleware has already run the refresh-on-read
// lifecycle, so the access token attached here is outside its buffer window.
type ProxyHandler struct {
	proxy *httputil.ReverseProxy
}

// NewProxyHandler creates a ProxyHandler targeting the given backend base URL.
func NewProxyHandler(apiURL, sessionCookie, csrfCookie string) (*ProxyHandler, error) {
	target, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", apiURL, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
		stripCookie(req, sessionCookie)
		stripCookie(req, csrfCookie)
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("ProxyHandler: upstream error for %s %s: %v", r.Method, r.URL.Path, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":"Backend unavailable"}`)
	}

	return &ProxyHandler{proxy: proxy}, nil
}

// Handle forwards one request. An errored session gets a 401 so the client
// knows to re-authenticate; a missing session is forwarded as-is, since the
// marketplace exposes public listing endpoints.
func (h *ProxyHandler) Handle(c *gin.Context) {
	state := middleware.StateFromContext(c)
	if state != nil {
		if state.Errored() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": models.ErrRefreshAccessToken})
			return
		}
		if state.AccessToken != "" {
			c.Request.Header.Set("Authorization", "Bearer "+state.AccessToken)
		}
	}

	h.proxy.ServeHTTP(c.Writer, c.Request)
}

// RegisterRoutes registers the proxy catch-all
func (h *ProxyHandler) RegisterRoutes(router *gin.Engine, sessionMW gin.HandlerFunc) {
	router.Any("/api/*path", sessionMW, h.Handle)
}

// stripCookie removes a gateway-internal cookie before the request leaves
// for the backend.
func stripCookie(req *http.Request, name string) {
	cookies := req.Cookies()
	req.Header.Del("Cookie")
	for _, cookie := range cookies {
		if cookie.Name != name {
			req.AddCookie(cookie)
		}
	}
}
