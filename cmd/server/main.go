package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rick1290/estuary-auth/config"
	"github.com/rick1290/estuary-auth/internal/backend"
	"github.com/rick1290/estuary-auth/internal/handlers"
	"github.com/rick1290/estuary-auth/internal/middleware"
	"github.com/rick1290/estuary-auth/internal/services"
	"github.com/rick1290/estuary-auth/internal/session"
)

func main() {
	// Load configuration
	configPath := filepath.Join(".", "config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create app
	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = fmt.Sprintf("%d", cfg.Port)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: app.Router,
	}

	// Start the server in a goroutine
	go func() {
		log.Printf("Session gateway starting on port %s in %s mode (backend: %s)", port, cfg.Environment, cfg.APIURL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// App represents the application
type App struct {
	Router   *gin.Engine
	Config   *config.Config
	Backend  backend.Client
	Codec    *session.Codec
	Services *Services
	Handlers *Handlers
}

// Services holds all service instances
type Services struct {
	Session services.SessionService
}

// Handlers holds all handler instances
type Handlers struct {
	Auth  *handlers.AuthHandler
	Proxy *handlers.ProxyHandler
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config) (*App, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		secret = "default-secret-change-in-production" // Default for development
		if cfg.Environment == "production" {
			log.Fatal("Session secret must be set in production")
		}
	}

	app := &App{
		Config:  cfg,
		Backend: backend.NewHTTPClient(cfg.APIURL(), cfg.UpstreamTimeout),
		Codec:   session.NewCodec(secret, cfg.SessionMaxAge),
	}

	app.Services = &Services{
		Session: services.NewSessionService(app.Backend, cfg.AccessTokenDuration, cfg.RefreshBuffer),
	}

	proxyHandler, err := handlers.NewProxyHandler(cfg.APIURL(), cfg.SessionCookie, middleware.CSRFCookie)
	if err != nil {
		return nil, err
	}
	app.Handlers = &Handlers{
		Auth:  handlers.NewAuthHandler(cfg, app.Services.Session, app.Codec),
		Proxy: proxyHandler,
	}

	app.setupRouter()
	return app, nil
}

// setupRouter configures the HTTP router
func (a *App) setupRouter() {
	router := gin.Default()

	// Set up CORS
	router.Use(middleware.CORS(a.Config.AllowedOrigins))

	// Set up middleware
	sessionMW := middleware.Session(a.Config, a.Codec, a.Services.Session)
	csrfMW := middleware.CSRF()

	// Configure rate limits from config
	rateLimit := a.Config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 100 // Default to 100 requests per minute
	}
	var rdb *redis.Client
	if a.Config.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	}
	loginLimiter := middleware.RateLimiter(rateLimit, rdb)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   a.Config.Version,
			"timestamp": time.Now().UTC(),
		})
	})

	// Session lifecycle routes
	auth := router.Group("")
	a.Handlers.Auth.RegisterRoutes(auth, sessionMW, csrfMW, loginLimiter)

	// Authenticated pass-through to the backend API
	a.Handlers.Proxy.RegisterRoutes(router, sessionMW)

	a.Router = router
}
