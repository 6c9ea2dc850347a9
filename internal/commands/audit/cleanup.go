package auditcmd

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-nestsync/internal/commands"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const cleanupAuditMessageType = "nestsync.audit.cleanup"

// AuditCleaner extends AuditLog with cleanup capabilities.
type AuditCleaner interface {
	AuditLog
	Clear(ctx context.Context) error
	ClearBefore(ctx context.Context, cutoff time.Time) error
}

// CleanupAuditCommand prunes recorded audit events. RetainDays keeps events
// newer than the given window; zero clears the whole trail. When DryRun is
// true only the affected count is reported.
type CleanupAuditCommand struct {
	RetainDays int  `json:"retain_days,omitempty"`
	DryRun     bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (CleanupAuditCommand) Type() string { return cleanupAuditMessageType }

// Validate satisfies command.Message.
func (m CleanupAuditCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.RetainDays, validation.Min(0)),
	)
}

type cleanupHandlerConfig struct {
	cronConfig     command.HandlerConfig
	timeout        time.Duration
	cronRetainDays int
	clock          func() time.Time
}

// CleanupHandlerOption customises the cleanup handler.
type CleanupHandlerOption func(*cleanupHandlerConfig)

// CleanupWithCronConfig overrides the cron registration options for the cleanup handler.
func CleanupWithCronConfig(config command.HandlerConfig) CleanupHandlerOption {
	return func(cfg *cleanupHandlerConfig) {
		cfg.cronConfig = config
	}
}

// CleanupWithCronExpression overrides the cron expression for the cleanup handler.
func CleanupWithCronExpression(expression string) CleanupHandlerOption {
	return func(cfg *cleanupHandlerConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// CleanupWithTimeout overrides the default execution timeout.
func CleanupWithTimeout(timeout time.Duration) CleanupHandlerOption {
	return func(cfg *cleanupHandlerConfig) {
		cfg.timeout = timeout
	}
}

// CleanupWithRetainDays sets the retention window the scheduled cron run
// prunes to. Zero keeps the cron run clearing everything.
func CleanupWithRetainDays(days int) CleanupHandlerOption {
	return func(cfg *cleanupHandlerConfig) {
		if days > 0 {
			cfg.cronRetainDays = days
		}
	}
}

// CleanupWithClock overrides the time source used to compute retention cutoffs.
func CleanupWithClock(clock func() time.Time) CleanupHandlerOption {
	return func(cfg *cleanupHandlerConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// CleanupAuditHandler prunes audit events via the supplied cleaner implementation.
type CleanupAuditHandler struct {
	cleaner        AuditCleaner
	logger         interfaces.Logger
	cronConfig     command.HandlerConfig
	timeout        time.Duration
	cronRetainDays int
	clock          func() time.Time
}

// NewCleanupAuditHandler constructs a handler that delegates to the provided cleaner instance.
func NewCleanupAuditHandler(cleaner AuditCleaner, logger interfaces.Logger, opts ...CleanupHandlerOption) *CleanupAuditHandler {
	cfg := cleanupHandlerConfig{
		cronConfig: command.HandlerConfig{
			Expression: "@daily",
		},
		timeout: commands.DefaultCommandTimeout,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &CleanupAuditHandler{
		cleaner:        cleaner,
		logger:         commands.EnsureLogger(logger),
		cronConfig:     cfg.cronConfig,
		timeout:        cfg.timeout,
		cronRetainDays: cfg.cronRetainDays,
		clock:          cfg.clock,
	}
}

// Execute satisfies command.Commander[CleanupAuditCommand].
func (h *CleanupAuditHandler) Execute(ctx context.Context, msg CleanupAuditCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return commands.WrapContextError(err)
	}

	events, err := h.cleaner.List(ctx)
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	var cutoff time.Time
	affected := len(events)
	if msg.RetainDays > 0 {
		cutoff = h.clock().AddDate(0, 0, -msg.RetainDays)
		affected = 0
		for _, event := range events {
			if event.OccurredAt.Before(cutoff) {
				affected++
			}
		}
	}

	logger := logging.WithFields(h.logger, map[string]any{
		"operation":   "audit.cleanup",
		"retain_days": msg.RetainDays,
	})

	if msg.DryRun {
		logging.WithFields(logger, map[string]any{
			"dry_run":      true,
			"would_remove": affected,
			"listed":       len(events),
		}).Debug("audit.command.cleanup.dry_run")
		return nil
	}

	if msg.RetainDays > 0 {
		if err := h.cleaner.ClearBefore(ctx, cutoff); err != nil {
			return commands.WrapExecuteError(err)
		}
	} else if err := h.cleaner.Clear(ctx); err != nil {
		return commands.WrapExecuteError(err)
	}

	logging.WithFields(logger, map[string]any{
		"removed": affected,
	}).Debug("audit.command.cleanup.removed")
	return nil
}

// CronHandler satisfies command.CronCommand by binding the scheduled prune to
// the configured retention window.
func (h *CleanupAuditHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), CleanupAuditCommand{RetainDays: h.cronRetainDays})
	}
}

// CronOptions satisfies command.CronCommand by returning the configured cron metadata.
func (h *CleanupAuditHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler exposes the cleanup handler to CLI integrations.
func (h *CleanupAuditHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for audit cleanup.
func (h *CleanupAuditHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"audit", "cleanup"},
		Group:       "audit",
		Description: "Prune audit events past the retention window; supports dry-run",
	}
}
