// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BRK_DATABASE_URL", "postgres://test")
	t.Setenv("BRK_JWT_SECRET_KEY", "test-secret")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BRK_PORT", "9000")
	t.Setenv("BRK_ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("BRK_RATE_LIMIT_RPS", "2.5")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected token TTL 15m, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("expected rate limit 2.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.AuditSalt != "test-secret" {
		t.Errorf("expected audit salt to fall back to JWT secret, got %q", cfg.AuditSalt)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected default database type postgres, got %q", cfg.DatabaseType)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Errorf("expected default token TTL 1h, got %s", cfg.AccessTokenTTL)
	}
	if cfg.APIPrefix != "/api/v1" {
		t.Errorf("expected default API prefix /api/v1, got %q", cfg.APIPrefix)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("expected default rate limit 10/20, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BRK_PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-t", "sqlite", "-jwt-secret", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("CLI should override env: expected file:test.db, got %q", cfg.DatabaseURL)
	}
	if cfg.JWTSecret != "s1" {
		t.Errorf("CLI should override env: expected s1, got %q", cfg.JWTSecret)
	}
}

func TestParseFlags_ConfigFile(t *testing.T) {
	t.Setenv("BRK_JWT_SECRET_KEY", "env-secret")

	path := filepath.Join(t.TempDir(), "brikick.yaml")
	content := `
port: 4000
database_url: "file:brikick.db"
database_type: sqlite
jwt_secret: file-secret
access_token_ttl: 30m
schedules:
  evaluate_penalties: "15 3 * * *"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 4000 {
		t.Errorf("expected port from file 4000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected database type from file, got %q", cfg.DatabaseType)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("env should override file: expected env-secret, got %q", cfg.JWTSecret)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected token TTL 30m, got %s", cfg.AccessTokenTTL)
	}
	if got := cfg.Schedules["evaluate_penalties"]; got != "15 3 * * *" {
		t.Errorf("expected schedule override, got %q", got)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{
			name: "missing database url",
			env:  map[string]string{"BRK_JWT_SECRET_KEY": "s"},
		},
		{
			name: "missing jwt secret",
			env:  map[string]string{"BRK_DATABASE_URL": "postgres://x"},
		},
		{
			name: "default jwt secret",
			env:  map[string]string{"BRK_DATABASE_URL": "postgres://x", "BRK_JWT_SECRET_KEY": "change-me"},
		},
		{
			name: "bad port",
			env:  map[string]string{"BRK_DATABASE_URL": "postgres://x", "BRK_JWT_SECRET_KEY": "s", "BRK_PORT": "abc"},
		},
		{
			name: "bad database type",
			env:  map[string]string{"BRK_DATABASE_URL": "postgres://x", "BRK_JWT_SECRET_KEY": "s"},
			args: []string{"-t", "mysql"},
		},
		{
			name: "missing config file",
			env:  map[string]string{"BRK_DATABASE_URL": "postgres://x", "BRK_JWT_SECRET_KEY": "s"},
			args: []string{"-config", "/nonexistent/brikick.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"BRK_DATABASE_URL", "BRK_JWT_SECRET_KEY", "BRK_PORT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
