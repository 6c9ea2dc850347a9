package notifycmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-nestsync/internal/commands"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/notifications"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

const dispatchMessageType = "nestsync.notifications.dispatch"

// DispatchNotificationsCommand delivers the due notification batch. A zero
// BatchSize uses the service default.
type DispatchNotificationsCommand struct {
	BatchSize int `json:"batch_size,omitempty"`
}

// Type implements command.Message.
func (DispatchNotificationsCommand) Type() string { return dispatchMessageType }

// Validate ensures the batch size is usable before reaching handlers.
func (m DispatchNotificationsCommand) Validate() error {
	errs := validation.Errors{}
	if m.BatchSize < 0 {
		errs["batch_size"] = validation.NewError("nestsync.notifications.dispatch.batch_size_invalid", "batch_size must be zero or positive")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DispatchNotificationsHandler runs a delivery pass via the notifications
// service using the shared command handler foundation.
type DispatchNotificationsHandler struct {
	inner *commands.Handler[DispatchNotificationsCommand]
}

// NewDispatchNotificationsHandler constructs a handler wired to the provided notifications service.
func NewDispatchNotificationsHandler(service notifications.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DispatchNotificationsCommand]) *DispatchNotificationsHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg DispatchNotificationsCommand) error {
		sent, err := service.Dispatch(ctx, msg.BatchSize)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"operation": "dispatch",
			"sent":      sent,
		}).Info("notifications.command.dispatch.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[DispatchNotificationsCommand]{
		commands.WithLogger[DispatchNotificationsCommand](baseLogger),
		commands.WithOperation[DispatchNotificationsCommand]("notifications.dispatch"),
		commands.WithMessageFields(func(msg DispatchNotificationsCommand) map[string]any {
			if msg.BatchSize <= 0 {
				return nil
			}
			return map[string]any{"batch_size": msg.BatchSize}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[DispatchNotificationsCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DispatchNotificationsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DispatchNotificationsCommand].Execute.
func (h *DispatchNotificationsHandler) Execute(ctx context.Context, msg DispatchNotificationsCommand) error {
	return h.inner.Execute(ctx, msg)
}
