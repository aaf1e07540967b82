package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"168h"`

	// AppURL is the public origin used when the request origin cannot be derived.
	AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`

	Google OAuthConfig `envPrefix:"GOOGLE_"`

	// PolicyFile optionally points at a YAML domain/role policy.
	PolicyFile   string        `env:"POLICY_FILE"`
	RoleCacheTTL time.Duration `env:"ROLE_CACHE_TTL" envDefault:"1m"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"1"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" envDefault:"20"`

	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-* headers are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

func (c OAuthConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Load reads an optional .env file and then parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 7 * 24 * time.Hour
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsLocal reports whether the service runs outside a deployed environment.
// Cookies are only marked Secure when this is false.
func (c *Config) IsLocal() bool {
	switch strings.ToLower(c.Env) {
	case "development", "local", "test":
		return true
	}
	return false
}
