// Package config loads fareclaim settings from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported DATA_BACKEND values.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

var validBackends = []string{BackendMemory, BackendPostgres, BackendSQLite}

type Config struct {
	// HTTP server
	Addr             string
	CORSOrigins      []string
	TrustForwardAuth bool

	// Storage
	DataBackend  string
	DatabaseURL  string
	SQLiteDBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Auth
	SessionTTL       time.Duration
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Optional CSV of fare rules imported at startup.
	SeedFareRules string

	// Values present in the environment that could not be parsed.
	parseErrors []string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Addr = getEnv("ADDR", ":8080")
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	cfg.TrustForwardAuth = cfg.getEnvBool("TRUST_FORWARD_AUTH", false)

	cfg.DataBackend = getEnv("DATA_BACKEND", BackendMemory)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", "./data/fareclaim.db")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	cfg.SessionTTL = cfg.getEnvDuration("SESSION_TTL", 24*time.Hour)
	cfg.OIDCIssuer = os.Getenv("OIDC_ISSUER")
	cfg.OIDCClientID = os.Getenv("OIDC_CLIENT_ID")
	cfg.OIDCClientSecret = os.Getenv("OIDC_CLIENT_SECRET")
	cfg.OIDCRedirectURL = os.Getenv("OIDC_REDIRECT_URL")

	cfg.SeedFareRules = os.Getenv("SEED_FARE_RULES")
	return cfg
}

// OIDCEnabled reports whether SSO login is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	errs := append([]string(nil), c.parseErrors...)

	if _, port, err := net.SplitHostPort(c.Addr); err != nil {
		errs = append(errs, fmt.Sprintf("invalid address '%s': %v", c.Addr, err))
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port '%s' in address: must be between 0 and 65535", port))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when using postgres backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.OIDCEnabled() {
		if c.OIDCClientID == "" {
			errs = append(errs, "OIDC_CLIENT_ID is required when OIDC_ISSUER is set")
		}
		if c.OIDCRedirectURL == "" {
			errs = append(errs, "OIDC_REDIRECT_URL is required when OIDC_ISSUER is set")
		}
	}

	if c.SeedFareRules != "" {
		if _, err := os.Stat(c.SeedFareRules); err != nil {
			errs = append(errs, fmt.Sprintf("fare rule seed file '%s' is not readable: %v", filepath.Clean(c.SeedFareRules), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a boolean", key, value))
		return defaultValue
	}
	return b
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a duration such as 24h", key, value))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}
