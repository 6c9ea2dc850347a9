package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrDatabaseDSNRequired indicates a configured database driver without a DSN.
var ErrDatabaseDSNRequired = errors.New("nestsync config: database dsn is required when a driver is configured")

// ErrDatabaseDriverUnknown reports an unsupported database driver.
var ErrDatabaseDriverUnknown = errors.New("nestsync config: database driver is invalid")

// ErrAuthSecretRequired ensures token verification never runs with an empty secret.
var ErrAuthSecretRequired = errors.New("nestsync config: auth secret is required unless dev mode is enabled")

// ErrWebhookSecretRequired keeps webhook verification behind a shared secret.
var ErrWebhookSecretRequired = errors.New("nestsync config: billing webhook secret is required when billing is enabled")

var ErrTrialDaysInvalid = errors.New("nestsync config: billing trial days must be zero or positive")
var ErrEmailSenderRequired = errors.New("nestsync config: notifications email sender is required when email is enabled")
var ErrEventsURLRequired = errors.New("nestsync config: events server url is required when events are enabled")
var ErrDispatchIntervalInvalid = errors.New("nestsync config: notifications dispatch interval must be positive")
var ErrRateLimitInvalid = errors.New("nestsync config: webhook rate limit must be positive")
var ErrLoggingProviderRequired = errors.New("nestsync config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("nestsync config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("nestsync config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("nestsync config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the NestSync module.
// Fields use simple types so host applications can extend them later.
type Config struct {
	Enabled       bool
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Cache         CacheConfig
	Billing       BillingConfig
	Notifications NotificationsConfig
	Events        EventsConfig
	Links         LinksConfig
	Features      Features
	Commands      CommandsConfig
	Logging       LoggingConfig
}

// ServerConfig captures HTTP listener behaviour.
type ServerConfig struct {
	Addr            string
	BasePath        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	WebhookRPS      float64
	WebhookBurst    int
	MaxBodyBytes    int64
}

// DatabaseConfig lists identifiers for storage-related dependencies.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// AuthConfig captures bearer-token verification settings. Tokens are issued
// by the hosted identity provider; this module only verifies them.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
	// DevMode accepts unsigned actor headers so local clients can exercise
	// the API without an identity provider.
	DevMode bool
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// BillingConfig captures payment-processor integration settings.
type BillingConfig struct {
	WebhookSecret string
	TrialDays     int
	Currency      string
}

// NotificationsConfig wires delivery channel adapters.
type NotificationsConfig struct {
	EmailEnabled     bool
	EmailRegion      string
	EmailSender      string
	DispatchInterval time.Duration
	DispatchBatch    int
}

// EventsConfig captures event bus publishing settings.
type EventsConfig struct {
	Enabled bool
	URL     string
	Subject string
}

// LinksConfig captures routing configuration for outbound link building
// (invitation accept URLs, app deep links).
type LinksConfig struct {
	RouteConfig *urlkit.Config
	WebBaseURL  string
}

// Features toggles module functionality.
type Features struct {
	Billing       bool
	Notifications bool
	Events        bool
	Audit         bool
	Scheduling    bool
	Logger        bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// CommandsConfig captures optional command-layer behaviour.
// AuditRetentionDays bounds the scheduled audit prune; zero makes the cron
// run clear the whole trail.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
	AuditRetentionDays     int
}

// DefaultConfig returns opinionated defaults for a development deployment.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Environment: "development",
		Server: ServerConfig{
			Addr:            ":8080",
			BasePath:        "/api/v1",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			WebhookRPS:      5,
			WebhookBurst:    10,
			MaxBodyBytes:    1 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:nestsync.db?cache=shared&_fk=1",
		},
		Auth: AuthConfig{
			Issuer: "supabase",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Billing: BillingConfig{
			TrialDays: 14,
			Currency:  "cad",
		},
		Notifications: NotificationsConfig{
			EmailRegion:      "ca-central-1",
			DispatchInterval: time.Minute,
			DispatchBatch:    50,
		},
		Events: EventsConfig{
			Subject: "nestsync.events",
		},
		Links: LinksConfig{
			WebBaseURL: "http://localhost:8081",
		},
		Features: Features{
			Scheduling: true,
		},
		Commands: CommandsConfig{
			AuditRetentionDays: 90,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if driver := normalizeDriver(cfg.Database.Driver); driver != "" {
		if !isSupportedDriver(driver) {
			return fmt.Errorf("%w: %s", ErrDatabaseDriverUnknown, driver)
		}
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return ErrDatabaseDSNRequired
		}
	}
	if !cfg.Auth.DevMode && strings.TrimSpace(cfg.Auth.Secret) == "" {
		return ErrAuthSecretRequired
	}
	if cfg.Features.Billing {
		if strings.TrimSpace(cfg.Billing.WebhookSecret) == "" {
			return ErrWebhookSecretRequired
		}
		if cfg.Billing.TrialDays < 0 {
			return ErrTrialDaysInvalid
		}
	}
	if cfg.Features.Notifications {
		if cfg.Notifications.EmailEnabled && strings.TrimSpace(cfg.Notifications.EmailSender) == "" {
			return ErrEmailSenderRequired
		}
		if cfg.Notifications.DispatchInterval <= 0 {
			return ErrDispatchIntervalInvalid
		}
	}
	if cfg.Features.Events && strings.TrimSpace(cfg.Events.URL) == "" {
		return ErrEventsURLRequired
	}
	if cfg.Server.WebhookRPS <= 0 || cfg.Server.WebhookBurst <= 0 {
		return ErrRateLimitInvalid
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeDriver(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

func isSupportedDriver(driver string) bool {
	switch driver {
	case "sqlite", "postgres":
		return true
	default:
		return false
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
