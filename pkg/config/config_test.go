package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if !cfg.App.IsProd() {
		t.Fatal("expected IsProd to report true")
	}

	if cfg.Upstream.BaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected upstream base url: %q", cfg.Upstream.BaseURL)
	}
	if got := cfg.Upstream.Timeout; got != 30*time.Second {
		t.Fatalf("expected default upstream timeout 30s, got %v", got)
	}
	if cfg.Upstream.Secondary != "/api/shenzhen/stock" {
		t.Fatalf("unexpected secondary stock path: %q", cfg.Upstream.Secondary)
	}

	if cfg.Risk.StockoutDays != 45 || cfg.Risk.ExpiryHighDays != 90 || cfg.Risk.ExpiryNoneDays != 365 {
		t.Fatalf("unexpected risk defaults: %+v", cfg.Risk)
	}

	if cfg.Redis.Enabled() {
		t.Fatal("redis should be disabled without a url or address")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RelativeUpstreamURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvUpstreamBaseURL, "/api")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative upstream url to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvUpstreamBaseURL, "http://localhost:5000")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvDraftDBPath, "")
}
