package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Addr:        ":8080",
		DataBackend: BackendMemory,
		LogLevel:    "info",
		LogFormat:   "text",
		SessionTTL:  24 * time.Hour,
	}
}

func TestConfig_Validate(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "fares.csv")
	if err := os.WriteFile(seed, []byte("Tokyo,Shibuya,200\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{
			name:   "valid memory backend config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid postgres backend config",
			mutate: func(c *Config) {
				c.DataBackend = BackendPostgres
				c.DatabaseURL = "postgres://localhost/fareclaim"
			},
		},
		{
			name:   "valid seed file",
			mutate: func(c *Config) { c.SeedFareRules = seed },
		},
		{
			name:        "invalid address",
			mutate:      func(c *Config) { c.Addr = "8080" },
			errorString: "invalid address '8080'",
		},
		{
			name:        "invalid port",
			mutate:      func(c *Config) { c.Addr = ":70000" },
			errorString: "invalid port '70000'",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			errorString: "invalid data backend 'sheets': must be one of [memory postgres sqlite]",
		},
		{
			name:        "postgres backend missing url",
			mutate:      func(c *Config) { c.DataBackend = BackendPostgres },
			errorString: "DATABASE_URL is required",
		},
		{
			name: "sqlite backend missing path",
			mutate: func(c *Config) {
				c.DataBackend = BackendSQLite
				c.SQLiteDBPath = ""
			},
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "session ttl too short",
			mutate:      func(c *Config) { c.SessionTTL = time.Second },
			errorString: "invalid session ttl 1s",
		},
		{
			name:        "oidc incomplete",
			mutate:      func(c *Config) { c.OIDCIssuer = "https://id.example.com" },
			errorString: "OIDC_CLIENT_ID is required",
		},
		{
			name:        "missing seed file",
			mutate:      func(c *Config) { c.SeedFareRules = filepath.Join(t.TempDir(), "missing.csv") },
			errorString: "fare rule seed file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.errorString)
			}
			if !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.DataBackend = "nope"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid data backend") || !strings.Contains(err.Error(), "invalid log format") {
		t.Errorf("expected both problems reported, got: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ADDR", "CORS_ORIGINS", "TRUST_FORWARD_AUTH", "DATA_BACKEND", "DATABASE_URL",
		"SQLITE_DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "SESSION_TTL", "OIDC_ISSUER",
		"OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET", "OIDC_REDIRECT_URL", "SEED_FARE_RULES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DataBackend != BackendMemory {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
	if cfg.SQLiteDBPath != "./data/fareclaim.db" {
		t.Errorf("SQLiteDBPath = %q", cfg.SQLiteDBPath)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.TrustForwardAuth {
		t.Error("TrustForwardAuth must default to false")
	}
	if cfg.OIDCEnabled() {
		t.Error("OIDC must be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ADDR", "127.0.0.1:9000")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", "/tmp/fc.db")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, http://localhost:3000,,http://localhost:5173")
	t.Setenv("TRUST_FORWARD_AUTH", "true")
	t.Setenv("SESSION_TTL", "2h")

	cfg := Load()
	if cfg.Addr != "127.0.0.1:9000" || cfg.DataBackend != BackendSQLite || cfg.SQLiteDBPath != "/tmp/fc.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.TrustForwardAuth {
		t.Error("TrustForwardAuth = false, want true")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", cfg.SessionTTL)
	}
}

func TestLoad_UnparsableValuesFailValidation(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SESSION_TTL", "a day")
	t.Setenv("TRUST_FORWARD_AUTH", "sometimes")

	err := Load().Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid SESSION_TTL 'a day'") || !strings.Contains(err.Error(), "invalid TRUST_FORWARD_AUTH 'sometimes'") {
		t.Errorf("unexpected error: %v", err)
	}
}
