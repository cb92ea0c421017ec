package config

import (
	"github.com/skybi/netaccess/internal/netaccess"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NA_ENVIRONMENT", "NA_USERNAME", "NA_PASSWORD", "NA_PASSWORD_FILE", "NA_BASE_URL",
		"NA_DURATION", "NA_APPROVE_POLICY", "NA_TIMEOUT", "NA_RETRIES", "NA_RETRY_DELAY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != netaccess.DefaultBaseURL {
		t.Fatalf("base url mismatch: %s", cfg.BaseURL)
	}
	if cfg.Duration != int(netaccess.DurationDay) || cfg.ApprovePolicy != "optimistic" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Timeout != 30*time.Second || cfg.Retries != 0 || cfg.RetryDelay != 2*time.Second {
		t.Fatalf("unexpected hardening defaults: %+v", cfg)
	}
	if !cfg.IsEnvProduction() {
		t.Fatal("expected production environment by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NA_USERNAME", "ab12c345")
	t.Setenv("NA_PASSWORD", "hunter2")
	t.Setenv("NA_DURATION", "1")
	t.Setenv("NA_APPROVE_POLICY", "strict")
	t.Setenv("NA_RETRIES", "3")
	t.Setenv("NA_ENVIRONMENT", "dev")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Username != "ab12c345" || cfg.Password != "hunter2" || cfg.Duration != 1 || cfg.Retries != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	policy, err := cfg.Policy()
	if err != nil || policy != netaccess.StrictMatch {
		t.Fatalf("expected strict policy, got %s (%v)", policy, err)
	}
	if cfg.IsEnvProduction() {
		t.Fatal("expected development environment")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadFromEnvPasswordFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(path, []byte("  hunter2 \nignored\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("NA_USERNAME", "ab12c345")
	t.Setenv("NA_PASSWORD_FILE", path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Password != "hunter2" {
		t.Fatalf("unexpected password %q", cfg.Password)
	}
}

func TestLoadFromEnvMissingPasswordFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("NA_PASSWORD_FILE", filepath.Join(t.TempDir(), "missing"))
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for missing secret file")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Username: "u", Password: "p", Duration: 2, ApprovePolicy: "optimistic"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	tests := map[string]func(*Config){
		"missing username": func(cfg *Config) { cfg.Username = "" },
		"missing password": func(cfg *Config) { cfg.Password = "" },
		"invalid duration": func(cfg *Config) { cfg.Duration = 3 },
		"unknown policy":   func(cfg *Config) { cfg.ApprovePolicy = "lenient" },
		"negative retries": func(cfg *Config) { cfg.Retries = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestStringHidesPassword(t *testing.T) {
	cfg := Config{Username: "u", Password: "hunter2"}
	if strings.Contains(cfg.String(), "hunter2") {
		t.Fatalf("password leaked: %s", cfg.String())
	}
}
