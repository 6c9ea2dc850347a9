package inventorycmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-nestsync/internal/commands"
	"github.com/goliatone/go-nestsync/internal/inventory"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

const logUsageMessageType = "nestsync.inventory.log_usage"

// LogUsageCommand records one diaper change. Kind defaults to wet when empty;
// ItemID pins the decrement to a specific purchase.
type LogUsageCommand struct {
	ChildID    uuid.UUID  `json:"child_id"`
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	Kind       string     `json:"kind,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	LoggedBy   uuid.UUID  `json:"logged_by"`
}

// Type implements command.Message.
func (LogUsageCommand) Type() string { return logUsageMessageType }

// Validate ensures the message carries the required identifiers before reaching handlers.
func (m LogUsageCommand) Validate() error {
	errs := validation.Errors{}
	if m.ChildID == uuid.Nil {
		errs["child_id"] = validation.NewError("nestsync.inventory.log_usage.child_id_required", "child_id is required")
	}
	if m.LoggedBy == uuid.Nil {
		errs["logged_by"] = validation.NewError("nestsync.inventory.log_usage.logged_by_required", "logged_by is required")
	}
	if m.ItemID != nil && *m.ItemID == uuid.Nil {
		errs["item_id"] = validation.NewError("nestsync.inventory.log_usage.item_id_invalid", "item_id must be a valid identifier when provided")
	}
	if m.Kind != "" && !inventory.UsageKind(m.Kind).Valid() {
		errs["kind"] = validation.NewError("nestsync.inventory.log_usage.kind_invalid", "kind must be one of wet, soiled, both, dry")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LogUsageHandler records usage via the inventory service using the shared
// command handler foundation.
type LogUsageHandler struct {
	inner *commands.Handler[LogUsageCommand]
}

// NewLogUsageHandler constructs a handler wired to the provided inventory service.
func NewLogUsageHandler(service inventory.Service, logger interfaces.Logger, opts ...commands.HandlerOption[LogUsageCommand]) *LogUsageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg LogUsageCommand) error {
		req := inventory.LogUsageRequest{
			ChildID:  msg.ChildID,
			ItemID:   msg.ItemID,
			Kind:     inventory.UsageKind(msg.Kind),
			Notes:    msg.Notes,
			LoggedBy: msg.LoggedBy,
		}
		if msg.OccurredAt != nil {
			req.OccurredAt = *msg.OccurredAt
		}
		_, err := service.LogUsage(ctx, req)
		return err
	}

	handlerOpts := []commands.HandlerOption[LogUsageCommand]{
		commands.WithLogger[LogUsageCommand](baseLogger),
		commands.WithOperation[LogUsageCommand]("inventory.log_usage"),
		commands.WithMessageFields(func(msg LogUsageCommand) map[string]any {
			fields := map[string]any{}
			if msg.ChildID != uuid.Nil {
				fields["child_id"] = msg.ChildID
			}
			if msg.ItemID != nil && *msg.ItemID != uuid.Nil {
				fields["item_id"] = *msg.ItemID
			}
			if msg.Kind != "" {
				fields["kind"] = msg.Kind
			}
			if msg.LoggedBy != uuid.Nil {
				fields["logged_by"] = msg.LoggedBy
			}
			if len(fields) == 0 {
				return nil
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[LogUsageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &LogUsageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[LogUsageCommand].Execute.
func (h *LogUsageHandler) Execute(ctx context.Context, msg LogUsageCommand) error {
	return h.inner.Execute(ctx, msg)
}
