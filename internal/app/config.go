package app

import (
	"os"
	"time"
	_ "time/tzdata"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (CAFE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Backend      string `default:"postgres" usage:"Storage backend: postgres or memory"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (CAFE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	TimeZone     string `default:"Asia/Kolkata" usage:"IANA time zone for calendar dates" flag:"time-zone"`
	BusinessName string `default:"Click Cafe" usage:"Business name printed on invoices" flag:"business-name"`
	// Seed loads the embedded staff account and menu on startup.
	Seed           bool `default:"false" usage:"Apply the embedded seed data on startup"`
	Auth           AuthConfig
	RateLimit      RateLimitConfig
	LoginRateLimit LoginRateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// AuthConfig controls session tokens.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" usage:"HMAC secret for session tokens (CAFE_AUTH_JWT_SECRET)" flag:"jwt-secret"`
	TokenTTL  time.Duration `default:"12h" usage:"Session token lifetime" flag:"token-ttl"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// LoginRateLimitConfig throttles login attempts per client.
type LoginRateLimitConfig struct {
	Max    int           `default:"10" usage:"Max login attempts per window"`
	Window time.Duration `default:"1m" usage:"Login rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CAFE",
		Files:     []string{"config.yaml", "/etc/cafe/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set CAFE_DATABASE_URL or DATABASE_URL")
		}
	case BackendMemory:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required: set CAFE_AUTH_JWT_SECRET")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.TimeZone)
	}
	return loc, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's CAFE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
