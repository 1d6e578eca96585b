package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	DatabaseURL string   `env:"DATABASE_URL,required"`
	JWTSecret   string   `env:"JWT_SECRET,required"`
	JWTIssuer   string   `env:"JWT_ISSUER" envDefault:"library-be"`
	JWTTTLMins  int      `env:"JWT_TTL_MINUTES" envDefault:"60"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Library lending policy.
	LoanPeriodDays int     `env:"LOAN_PERIOD_DAYS" envDefault:"14"`
	FinePerDay     float64 `env:"FINE_PER_DAY" envDefault:"1"`
}

// Load reads configuration from the environment. A local .env file, if
// present, is loaded first so development setups need no exported vars.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.JWTTTLMins <= 0 {
		cfg.JWTTTLMins = 60
	}
	if cfg.LoanPeriodDays <= 0 {
		cfg.LoanPeriodDays = 14
	}
	if cfg.FinePerDay < 0 {
		cfg.FinePerDay = 0
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// JWTTTL returns the token lifetime.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMins) * time.Minute
}

// LoanPeriod returns the default span between borrowing a book and its due
// date.
func (c Config) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}
