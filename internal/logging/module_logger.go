package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

const (
	rootModule          = "nestsync"
	usersModule         = "nestsync.users"
	familiesModule      = "nestsync.families"
	childrenModule      = "nestsync.children"
	inventoryModule     = "nestsync.inventory"
	notificationsModule = "nestsync.notifications"
	billingModule       = "nestsync.billing"
	schedulerModule     = "nestsync.scheduler"
	jobsModule          = "nestsync.jobs"
	httpModule          = "nestsync.http"
)

const (
	fieldDeliveryChannel = "channel"
	fieldDeliveryType    = "notification_type"
	fieldDeliveryUser    = "user_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// UsersLogger returns the logger namespace reserved for account services.
func UsersLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, usersModule)
}

// FamiliesLogger returns the logger namespace reserved for family services.
func FamiliesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, familiesModule)
}

// ChildrenLogger returns the logger namespace reserved for child profile services.
func ChildrenLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, childrenModule)
}

// InventoryLogger returns the logger namespace reserved for inventory services.
func InventoryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, inventoryModule)
}

// NotificationsLogger returns the logger namespace reserved for notification services.
func NotificationsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, notificationsModule)
}

// BillingLogger returns the logger namespace reserved for billing services.
func BillingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, billingModule)
}

// SchedulerLogger returns the logger namespace reserved for scheduler workers.
func SchedulerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schedulerModule)
}

// JobsLogger returns the logger namespace reserved for the job worker.
func JobsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, jobsModule)
}

// HTTPLogger returns the logger namespace reserved for the HTTP adapters.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithDeliveryContext enriches the provided logger with common notification
// delivery fields such as channel, notification type, and recipient. Empty
// values are ignored.
func WithDeliveryContext(logger interfaces.Logger, channel, notificationType, userID string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(channel); trimmed != "" {
		fields[fieldDeliveryChannel] = trimmed
	}
	if trimmed := strings.TrimSpace(notificationType); trimmed != "" {
		fields[fieldDeliveryType] = trimmed
	}
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		fields[fieldDeliveryUser] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
