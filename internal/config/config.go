// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
	RequestTimeout time.Duration
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type string // "mongodb" or "memory"
	URI  string
	Name string
}

// RedisConfig points at the Redis instance backing the rate limiter.
// An empty URL disables rate limiting.
type RedisConfig struct {
	URL string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type MediaConfig struct {
	MaxBytes int64
}

// Config holds the complete application configuration
type Config struct {
	Server          *ServerConfig
	Database        *DatabaseConfig
	Redis           *RedisConfig
	RateLimit       *RateLimitConfig
	Media           *MediaConfig
	PostIdleTimeout time.Duration
	AllowedOrigins  []string
	Debug           bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
		RequestTimeout: 5 * time.Second,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type: "mongodb",
		Name: "post_board",
	}
}

func setDefaults(v *viper.Viper) {
	server := DefaultConfig()
	db := DefaultDatabaseConfig()

	v.SetDefault("HOST", server.Host)
	v.SetDefault("PORT", server.Port)
	v.SetDefault("METRICS_ENABLED", server.MetricsEnabled)
	v.SetDefault("REQUEST_TIMEOUT", server.RequestTimeout)
	v.SetDefault("POST_ACTOR_IDLE_TIMEOUT", 2*time.Minute)
	v.SetDefault("DEBUG", false)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_TYPE", db.Type)
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", db.Name)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 60)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("MEDIA_MAX_BYTES", 5<<20)
}

// loadDotEnv tries the usual .env locations; a missing file is not an error.
func loadDotEnv() {
	envLocations := []string{
		".env",          // Current directory
		"../../.env",    // Project root when running from cmd/engine
		"../../../.env", // Even higher directory
		filepath.Join(os.Getenv("GOPATH"), "src/post-board/.env"),
	}

	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			return
		}
	}
}

// LoadConfig loads configuration from .env and environment variables and applies defaults
func LoadConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		Server: &ServerConfig{
			Port:           v.GetInt("PORT"),
			Host:           v.GetString("HOST"),
			MetricsEnabled: v.GetBool("METRICS_ENABLED"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Database: &DatabaseConfig{
			Type: strings.ToLower(strings.TrimSpace(v.GetString("DB_TYPE"))),
			URI:  v.GetString("MONGODB_URI"),
			Name: v.GetString("MONGODB_DATABASE"),
		},
		Redis: &RedisConfig{URL: v.GetString("REDIS_URL")},
		RateLimit: &RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Media:           &MediaConfig{MaxBytes: v.GetInt64("MEDIA_MAX_BYTES")},
		PostIdleTimeout: v.GetDuration("POST_ACTOR_IDLE_TIMEOUT"),
		AllowedOrigins:  splitOrigins(v.GetString("ALLOWED_ORIGINS")),
		Debug:           v.GetBool("DEBUG"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mongodb":
		if c.Database.URI == "" {
			return fmt.Errorf("MONGODB_URI environment variable is required when DB_TYPE is mongodb")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("PORT must be positive, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.PostIdleTimeout <= 0 {
		return fmt.Errorf("POST_ACTOR_IDLE_TIMEOUT must be positive")
	}
	if c.Redis.URL != "" && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive when REDIS_URL is set")
	}
	if c.Media.MaxBytes <= 0 {
		return fmt.Errorf("MEDIA_MAX_BYTES must be positive")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func splitOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "*")
	}
	return origins
}
