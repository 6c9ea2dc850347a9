package nestsync

import "github.com/goliatone/go-nestsync/internal/runtimeconfig"

var (
	ErrDatabaseDSNRequired     = runtimeconfig.ErrDatabaseDSNRequired
	ErrDatabaseDriverUnknown   = runtimeconfig.ErrDatabaseDriverUnknown
	ErrAuthSecretRequired      = runtimeconfig.ErrAuthSecretRequired
	ErrWebhookSecretRequired   = runtimeconfig.ErrWebhookSecretRequired
	ErrTrialDaysInvalid        = runtimeconfig.ErrTrialDaysInvalid
	ErrEmailSenderRequired     = runtimeconfig.ErrEmailSenderRequired
	ErrEventsURLRequired       = runtimeconfig.ErrEventsURLRequired
	ErrDispatchIntervalInvalid = runtimeconfig.ErrDispatchIntervalInvalid
	ErrRateLimitInvalid        = runtimeconfig.ErrRateLimitInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config              = runtimeconfig.Config
	ServerConfig        = runtimeconfig.ServerConfig
	DatabaseConfig      = runtimeconfig.DatabaseConfig
	AuthConfig          = runtimeconfig.AuthConfig
	CacheConfig         = runtimeconfig.CacheConfig
	BillingConfig       = runtimeconfig.BillingConfig
	NotificationsConfig = runtimeconfig.NotificationsConfig
	EventsConfig        = runtimeconfig.EventsConfig
	LinksConfig         = runtimeconfig.LinksConfig
	Features            = runtimeconfig.Features
	CommandsConfig      = runtimeconfig.CommandsConfig
	LoggingConfig       = runtimeconfig.LoggingConfig
)

// DefaultConfig returns the development defaults for the module.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// ConfigFromEnv builds a Config from NESTSYNC_* environment variables layered
// on top of DefaultConfig.
func ConfigFromEnv() Config {
	return runtimeconfig.FromEnv()
}
