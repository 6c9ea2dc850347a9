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

const processWebhookMessageType = "nestsync.billing.process_webhook"

// ProcessWebhookCommand requests processing of a stored provider webhook event.
type ProcessWebhookCommand struct {
	EventID uuid.UUID `json:"event_id"`
}

// Type implements command.Message.
func (ProcessWebhookCommand) Type() string { return processWebhookMessageType }

// Validate ensures the message carries the event identifier before reaching handlers.
func (m ProcessWebhookCommand) Validate() error {
	errs := validation.Errors{}
	if m.EventID == uuid.Nil {
		errs["event_id"] = validation.NewError("nestsync.billing.process_webhook.event_id_required", "event_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ProcessWebhookHandler applies stored webhook events via the billing service
// using the shared command handler foundation.
type ProcessWebhookHandler struct {
	inner *commands.Handler[ProcessWebhookCommand]
}

// NewProcessWebhookHandler constructs a handler wired to the provided billing service.
func NewProcessWebhookHandler(service billing.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ProcessWebhookCommand]) *ProcessWebhookHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ProcessWebhookCommand) error {
		_, err := service.ProcessWebhookEvent(ctx, msg.EventID)
		return err
	}

	handlerOpts := []commands.HandlerOption[ProcessWebhookCommand]{
		commands.WithLogger[ProcessWebhookCommand](baseLogger),
		commands.WithOperation[ProcessWebhookCommand]("billing.process_webhook"),
		commands.WithMessageFields(func(msg ProcessWebhookCommand) map[string]any {
			if msg.EventID == uuid.Nil {
				return nil
			}
			return map[string]any{"event_id": msg.EventID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ProcessWebhookCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ProcessWebhookHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ProcessWebhookCommand].Execute.
func (h *ProcessWebhookHandler) Execute(ctx context.Context, msg ProcessWebhookCommand) error {
	return h.inner.Execute(ctx, msg)
}
