package runtimeconfig

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv builds a Config from NESTSYNC_* environment variables layered on
// top of DefaultConfig. Unset variables keep their defaults so a bare
// environment still yields a runnable development configuration.
func FromEnv() Config {
	cfg := DefaultConfig()

	cfg.Environment = getEnv("NESTSYNC_ENV", cfg.Environment)

	cfg.Server.Addr = getEnv("NESTSYNC_SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.BasePath = getEnv("NESTSYNC_SERVER_BASE_PATH", cfg.Server.BasePath)
	cfg.Server.ReadTimeout = getEnvDuration("NESTSYNC_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("NESTSYNC_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("NESTSYNC_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.WebhookRPS = getEnvFloat("NESTSYNC_WEBHOOK_RPS", cfg.Server.WebhookRPS)
	cfg.Server.WebhookBurst = getEnvInt("NESTSYNC_WEBHOOK_BURST", cfg.Server.WebhookBurst)

	cfg.Database.Driver = getEnv("NESTSYNC_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("NESTSYNC_DB_DSN", cfg.Database.DSN)

	cfg.Auth.Secret = getEnv("NESTSYNC_AUTH_SECRET", cfg.Auth.Secret)
	cfg.Auth.Issuer = getEnv("NESTSYNC_AUTH_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.Audience = getEnv("NESTSYNC_AUTH_AUDIENCE", cfg.Auth.Audience)
	cfg.Auth.DevMode = getEnvBool("NESTSYNC_AUTH_DEV_MODE", cfg.Auth.DevMode)

	cfg.Cache.Enabled = getEnvBool("NESTSYNC_CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.DefaultTTL = getEnvDuration("NESTSYNC_CACHE_TTL", cfg.Cache.DefaultTTL)

	cfg.Billing.WebhookSecret = getEnv("NESTSYNC_BILLING_WEBHOOK_SECRET", cfg.Billing.WebhookSecret)
	cfg.Billing.TrialDays = getEnvInt("NESTSYNC_BILLING_TRIAL_DAYS", cfg.Billing.TrialDays)
	cfg.Billing.Currency = getEnv("NESTSYNC_BILLING_CURRENCY", cfg.Billing.Currency)

	cfg.Notifications.EmailEnabled = getEnvBool("NESTSYNC_EMAIL_ENABLED", cfg.Notifications.EmailEnabled)
	cfg.Notifications.EmailRegion = getEnv("NESTSYNC_EMAIL_REGION", cfg.Notifications.EmailRegion)
	cfg.Notifications.EmailSender = getEnv("NESTSYNC_EMAIL_SENDER", cfg.Notifications.EmailSender)
	cfg.Notifications.DispatchInterval = getEnvDuration("NESTSYNC_DISPATCH_INTERVAL", cfg.Notifications.DispatchInterval)
	cfg.Notifications.DispatchBatch = getEnvInt("NESTSYNC_DISPATCH_BATCH", cfg.Notifications.DispatchBatch)

	cfg.Events.Enabled = getEnvBool("NESTSYNC_EVENTS_ENABLED", cfg.Events.Enabled)
	cfg.Events.URL = getEnv("NESTSYNC_EVENTS_URL", cfg.Events.URL)
	cfg.Events.Subject = getEnv("NESTSYNC_EVENTS_SUBJECT", cfg.Events.Subject)

	cfg.Links.WebBaseURL = getEnv("NESTSYNC_WEB_BASE_URL", cfg.Links.WebBaseURL)

	cfg.Features.Billing = getEnvBool("NESTSYNC_FEATURE_BILLING", cfg.Features.Billing)
	cfg.Features.Notifications = getEnvBool("NESTSYNC_FEATURE_NOTIFICATIONS", cfg.Features.Notifications)
	cfg.Features.Events = getEnvBool("NESTSYNC_FEATURE_EVENTS", cfg.Features.Events)
	cfg.Features.Audit = getEnvBool("NESTSYNC_FEATURE_AUDIT", cfg.Features.Audit)
	cfg.Features.Scheduling = getEnvBool("NESTSYNC_FEATURE_SCHEDULING", cfg.Features.Scheduling)
	cfg.Features.Logger = getEnvBool("NESTSYNC_FEATURE_LOGGER", cfg.Features.Logger)

	cfg.Commands.Enabled = getEnvBool("NESTSYNC_COMMANDS_ENABLED", cfg.Commands.Enabled)
	cfg.Commands.AutoRegisterDispatcher = getEnvBool("NESTSYNC_COMMANDS_AUTO_REGISTER", cfg.Commands.AutoRegisterDispatcher)
	cfg.Commands.AuditRetentionDays = getEnvInt("NESTSYNC_AUDIT_RETENTION_DAYS", cfg.Commands.AuditRetentionDays)

	cfg.Logging.Provider = getEnv("NESTSYNC_LOG_PROVIDER", cfg.Logging.Provider)
	cfg.Logging.Level = getEnv("NESTSYNC_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("NESTSYNC_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.AddSource = getEnvBool("NESTSYNC_LOG_ADD_SOURCE", cfg.Logging.AddSource)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
