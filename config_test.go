package nestsync_test

import (
	"errors"
	"testing"

	nestsync "github.com/goliatone/go-nestsync"
)

func TestDefaultConfigValidatesInDevMode(t *testing.T) {
	cfg := nestsync.DefaultConfig()
	cfg.Auth.DevMode = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected dev defaults to validate, got %v", err)
	}
}

func TestDefaultConfigRequiresAuthSecret(t *testing.T) {
	cfg := nestsync.DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, nestsync.ErrAuthSecretRequired) {
		t.Fatalf("expected ErrAuthSecretRequired, got %v", err)
	}
}

func TestConfigFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("NESTSYNC_SERVER_ADDR", ":9191")
	t.Setenv("NESTSYNC_FEATURE_BILLING", "true")

	cfg := nestsync.ConfigFromEnv()
	if cfg.Server.Addr != ":9191" {
		t.Fatalf("expected server addr :9191, got %q", cfg.Server.Addr)
	}
	if !cfg.Features.Billing {
		t.Fatal("expected billing feature enabled")
	}
}
