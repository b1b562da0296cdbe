package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every environment-sourced setting for the service.
// DATABASE_DSN has no default on purpose: the process must not come up
// without a database to talk to.
type Config struct {
	ListenAddr         string        `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabaseDSN        string        `env:"DATABASE_DSN,required,notEmpty"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	EmbedderURL        string        `env:"EMBEDDER_URL" envDefault:"http://embedder:8000"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"change_me"`
	TokenExpiryMinutes int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	EmbeddingThreshold float64       `env:"EMBEDDING_THRESHOLD" envDefault:"0.6"`
	EmbeddingDim       int           `env:"EMBEDDING_DIM" envDefault:"128"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	CORSOrigins        []string      `env:"CORS_ORIGINS" envDefault:"*"`
}

// Load reads a .env file when present and parses the environment.
// Variables already set in the environment win over the .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}
	if cfg.EmbeddingThreshold < 0 {
		return nil, fmt.Errorf("EMBEDDING_THRESHOLD must be non-negative, got %f", cfg.EmbeddingThreshold)
	}
	return cfg, nil
}

// TokenExpiry returns the configured access-token lifetime.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpiryMinutes) * time.Minute
}
