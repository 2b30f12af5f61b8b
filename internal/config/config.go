package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const devSecret = "dev-secret-change-in-production"

// Config holds all process-level settings. Immutable after Load.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/authgate?parseTime=true"`

	JWTSecret    string `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	JWTAlgorithm string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	TokenTTLMins int    `env:"TOKEN_TTL_MINUTES" envDefault:"60"`

	HashAlgorithm string `env:"HASH_ALGORITHM" envDefault:"bcrypt"`

	// ExemptPaths are request path prefixes the auth gate lets through
	// without a token. The root path is always exempt.
	ExemptPaths []string `env:"EXEMPT_PATHS" envSeparator:"," envDefault:"/auth,/docs,/openapi.json"`
}

// TokenTTL returns the configured token lifetime as a duration.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMins) * time.Minute
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Env == "production" && cfg.JWTSecret == devSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg, nil
}
