package auditcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-nestsync/internal/commands"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

const replayAuditMessageType = "nestsync.audit.replay"

// Worker exposes the subset of jobs.Worker behaviour required by the audit commands.
type Worker interface {
	Process(ctx context.Context) error
}

// ReplayAuditCommand drains due scheduler jobs through the worker pipeline so
// their outcomes land in the audit trail. Useful after an outage when sweeps
// were missed.
type ReplayAuditCommand struct{}

// Type implements command.Message.
func (ReplayAuditCommand) Type() string { return replayAuditMessageType }

// Validate satisfies command.Message.
func (ReplayAuditCommand) Validate() error {
	return validation.ValidateStruct(&ReplayAuditCommand{})
}

// ReplayAuditHandler runs pending scheduler jobs via the supplied worker.
type ReplayAuditHandler struct {
	inner *commands.Handler[ReplayAuditCommand]
}

// NewReplayAuditHandler constructs a handler that delegates to the provided
// worker instance. Outcome logging comes from the shared command handler.
func NewReplayAuditHandler(worker Worker, logger interfaces.Logger, opts ...commands.HandlerOption[ReplayAuditCommand]) *ReplayAuditHandler {
	exec := func(ctx context.Context, _ ReplayAuditCommand) error {
		return worker.Process(ctx)
	}

	handlerOpts := []commands.HandlerOption[ReplayAuditCommand]{
		commands.WithLogger[ReplayAuditCommand](logger),
		commands.WithOperation[ReplayAuditCommand]("audit.replay"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ReplayAuditHandler{
		inner: commands.NewHandler[ReplayAuditCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ReplayAuditCommand].
func (h *ReplayAuditHandler) Execute(ctx context.Context, msg ReplayAuditCommand) error {
	return h.inner.Execute(ctx, msg)
}
