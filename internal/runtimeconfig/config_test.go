package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-nestsync/internal/runtimeconfig"
)

func TestConfigValidate_DefaultsAreValidInDevMode(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresAuthSecretOutsideDevMode(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = false
	cfg.Auth.Secret = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrAuthSecretRequired) {
		t.Fatalf("expected ErrAuthSecretRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Database.Driver = "oracle"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDatabaseDriverUnknown) {
		t.Fatalf("expected ErrDatabaseDriverUnknown, got %v", err)
	}
}

func TestConfigValidate_RequiresDSNWithDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = " "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDatabaseDSNRequired) {
		t.Fatalf("expected ErrDatabaseDSNRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresWebhookSecretWhenBillingEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Features.Billing = true
	cfg.Billing.WebhookSecret = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrWebhookSecretRequired) {
		t.Fatalf("expected ErrWebhookSecretRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresEmailSenderWhenEmailEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Features.Notifications = true
	cfg.Notifications.EmailEnabled = true
	cfg.Notifications.EmailSender = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrEmailSenderRequired) {
		t.Fatalf("expected ErrEmailSenderRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresEventsURLWhenEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Features.Events = true
	cfg.Events.URL = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrEventsURLRequired) {
		t.Fatalf("expected ErrEventsURLRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresLoggingProviderWhenFeatureEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestFromEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("NESTSYNC_ENV", "production")
	t.Setenv("NESTSYNC_DB_DRIVER", "postgres")
	t.Setenv("NESTSYNC_DB_DSN", "postgres://nestsync")
	t.Setenv("NESTSYNC_AUTH_SECRET", "super-secret")
	t.Setenv("NESTSYNC_FEATURE_BILLING", "true")
	t.Setenv("NESTSYNC_BILLING_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("NESTSYNC_BILLING_TRIAL_DAYS", "30")
	t.Setenv("NESTSYNC_DISPATCH_INTERVAL", "30s")
	t.Setenv("NESTSYNC_AUDIT_RETENTION_DAYS", "30")

	cfg := runtimeconfig.FromEnv()

	if cfg.Environment != "production" {
		t.Fatalf("expected production environment, got %q", cfg.Environment)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://nestsync" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Auth.Secret != "super-secret" {
		t.Fatalf("expected auth secret override, got %q", cfg.Auth.Secret)
	}
	if !cfg.Features.Billing {
		t.Fatal("expected billing feature enabled")
	}
	if cfg.Billing.TrialDays != 30 {
		t.Fatalf("expected 30 trial days, got %d", cfg.Billing.TrialDays)
	}
	if cfg.Notifications.DispatchInterval != 30*time.Second {
		t.Fatalf("expected 30s dispatch interval, got %s", cfg.Notifications.DispatchInterval)
	}
	if cfg.Commands.AuditRetentionDays != 30 {
		t.Fatalf("expected 30 day audit retention, got %d", cfg.Commands.AuditRetentionDays)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("NESTSYNC_BILLING_TRIAL_DAYS", "soon")
	t.Setenv("NESTSYNC_CACHE_ENABLED", "maybe")
	t.Setenv("NESTSYNC_DISPATCH_INTERVAL", "whenever")

	cfg := runtimeconfig.FromEnv()
	defaults := runtimeconfig.DefaultConfig()

	if cfg.Billing.TrialDays != defaults.Billing.TrialDays {
		t.Fatalf("expected default trial days, got %d", cfg.Billing.TrialDays)
	}
	if cfg.Cache.Enabled != defaults.Cache.Enabled {
		t.Fatalf("expected default cache flag, got %v", cfg.Cache.Enabled)
	}
	if cfg.Notifications.DispatchInterval != defaults.Notifications.DispatchInterval {
		t.Fatalf("expected default dispatch interval, got %s", cfg.Notifications.DispatchInterval)
	}
}
