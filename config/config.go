package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the session gateway
type Config struct {
	Environment  string `mapstructure:"ENVIRONMENT"`
	Port         int    `mapstructure:"PORT"`
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	Version      string `mapstructure:"VERSION"`
	RateLimit    int    `mapstructure:"RATE_LIMIT"`

	// Upstream API Configuration
	InternalAPIURL string `mapstructure:"INTERNAL_API_URL"`
	PublicAPIURL   string `mapstructure:"NEXT_PUBLIC_API_URL"`

	// Session Cookie Configuration
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	SessionCookie string `mapstructure:"SESSION_COOKIE"`

	// Optional shared rate-limiter backend
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	// Token lifecycle tuning
	AccessTokenDuration time.Duration
	RefreshBuffer       time.Duration
	SessionMaxAge       time.Duration
	UpstreamTimeout     time.Duration

	// CORS Configuration
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
}

// APIURL returns the resolved upstream base URL. Resolution order:
// INTERNAL_API_URL, then NEXT_PUBLIC_API_URL, then the local default.
// The value is fixed at load time; nothing reads the environment later.
func (c *Config) APIURL() string {
	if c.InternalAPIURL != "" {
		return c.InternalAPIURL
	}
	if c.PublicAPIURL != "" {
		return c.PublicAPIURL
	}
	return "http://localhost:8000"
}

// LoadConfig loads the configuration from environment variables and config files
func LoadConfig(configPath string) (*Config, error) {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Set default values
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("PORT", 3001)
	viper.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	viper.SetDefault("VERSION", "1.0.0")
	viper.SetDefault("RATE_LIMIT", 100) // 100 requests per minute per IP
	viper.SetDefault("SESSION_COOKIE", "estuary.session")

	// Read environment variables
	viper.AutomaticEnv()
	_ = viper.BindEnv("INTERNAL_API_URL")
	_ = viper.BindEnv("NEXT_PUBLIC_API_URL")
	_ = viper.BindEnv("SESSION_SECRET")
	_ = viper.BindEnv("REDIS_ADDR")
	_ = viper.BindEnv("COOKIE_DOMAIN")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Set derived values
	config.AccessTokenDuration = 30 * time.Minute
	config.RefreshBuffer = 5 * time.Minute
	config.SessionMaxAge = 7 * 24 * time.Hour
	config.UpstreamTimeout = 10 * time.Second

	return &config, nil
}
