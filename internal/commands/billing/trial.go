package billingcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-nestsync/internal/billing"
	"github.com/goliatone/go-nestsync/internal/commands"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	expireTrialMessageType       = "nestsync.billing.expire_trial"
	remindTrialEndingMessageType = "nestsync.billing.remind_trial_ending"
)

// ExpireTrialCommand settles a trial subscription whose window has passed.
type ExpireTrialCommand struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
}

// Type implements command.Message.
func (ExpireTrialCommand) Type() string { return expireTrialMessageType }

// Validate ensures the message carries the subscription identifier.
func (m ExpireTrialCommand) Validate() error {
	errs := validation.Errors{}
	if m.SubscriptionID == uuid.Nil {
		errs["subscription_id"] = validation.NewError("nestsync.billing.expire_trial.subscription_id_required", "subscription_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ExpireTrialHandler moves lapsed trials to expired via the billing service.
type ExpireTrialHandler struct {
	inner *commands.Handler[ExpireTrialCommand]
}

// NewExpireTrialHandler constructs a handler wired to the provided billing service.
func NewExpireTrialHandler(service billing.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ExpireTrialCommand]) *ExpireTrialHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ExpireTrialCommand) error {
		_, err := service.ExpireTrial(ctx, msg.SubscriptionID)
		return err
	}

	handlerOpts := []commands.HandlerOption[ExpireTrialCommand]{
		commands.WithLogger[ExpireTrialCommand](baseLogger),
		commands.WithOperation[ExpireTrialCommand]("billing.expire_trial"),
		commands.WithMessageFields(func(msg ExpireTrialCommand) map[string]any {
			if msg.SubscriptionID == uuid.Nil {
				return nil
			}
			return map[string]any{"subscription_id": msg.SubscriptionID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ExpireTrialCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExpireTrialHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ExpireTrialCommand].Execute.
func (h *ExpireTrialHandler) Execute(ctx context.Context, msg ExpireTrialCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RemindTrialEndingCommand sends the days-left notice for a trialing subscription.
type RemindTrialEndingCommand struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
}

// Type implements command.Message.
func (RemindTrialEndingCommand) Type() string { return remindTrialEndingMessageType }

// Validate ensures the message carries the subscription identifier.
func (m RemindTrialEndingCommand) Validate() error {
	errs := validation.Errors{}
	if m.SubscriptionID == uuid.Nil {
		errs["subscription_id"] = validation.NewError("nestsync.billing.remind_trial_ending.subscription_id_required", "subscription_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RemindTrialEndingHandler delivers trial-ending reminders via the billing service.
type RemindTrialEndingHandler struct {
	inner *commands.Handler[RemindTrialEndingCommand]
}

// NewRemindTrialEndingHandler constructs a handler wired to the provided billing service.
func NewRemindTrialEndingHandler(service billing.Service, logger interfaces.Logger, opts ...commands.HandlerOption[RemindTrialEndingCommand]) *RemindTrialEndingHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg RemindTrialEndingCommand) error {
		return service.RemindTrialEnding(ctx, msg.SubscriptionID)
	}

	handlerOpts := []commands.HandlerOption[RemindTrialEndingCommand]{
		commands.WithLogger[RemindTrialEndingCommand](baseLogger),
		commands.WithOperation[RemindTrialEndingCommand]("billing.remind_trial_ending"),
		commands.WithMessageFields(func(msg RemindTrialEndingCommand) map[string]any {
			if msg.SubscriptionID == uuid.Nil {
				return nil
			}
			return map[string]any{"subscription_id": msg.SubscriptionID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RemindTrialEndingCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RemindTrialEndingHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RemindTrialEndingCommand].Execute.
func (h *RemindTrialEndingHandler) Execute(ctx context.Context, msg RemindTrialEndingCommand) error {
	return h.inner.Execute(ctx, msg)
}
