package inventorycmd

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

const scanLowStockMessageType = "nestsync.inventory.scan_low_stock"

// StockScanner exposes the sweep behaviour required by the scan command. The
// inventory service satisfies it.
type StockScanner interface {
	ScanLowStock(ctx context.Context) (int, error)
}

// ScanLowStockCommand runs the low-stock sweep outside the scheduler cadence.
type ScanLowStockCommand struct{}

// Type implements command.Message.
func (ScanLowStockCommand) Type() string { return scanLowStockMessageType }

// Validate satisfies command.Message.
func (ScanLowStockCommand) Validate() error {
	return validation.ValidateStruct(&ScanLowStockCommand{})
}

type scanHandlerConfig struct {
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// ScanHandlerOption customises the scan handler.
type ScanHandlerOption func(*scanHandlerConfig)

// ScanWithCronConfig overrides the cron registration options for the scan handler.
func ScanWithCronConfig(config command.HandlerConfig) ScanHandlerOption {
	return func(cfg *scanHandlerConfig) {
		cfg.cronConfig = config
	}
}

// ScanWithCronExpression overrides the cron expression for the scan handler.
func ScanWithCronExpression(expression string) ScanHandlerOption {
	return func(cfg *scanHandlerConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// ScanWithTimeout overrides the default execution timeout.
func ScanWithTimeout(timeout time.Duration) ScanHandlerOption {
	return func(cfg *scanHandlerConfig) {
		cfg.timeout = timeout
	}
}

// ScanLowStockHandler sweeps tracked stock via the supplied scanner implementation.
type ScanLowStockHandler struct {
	scanner    StockScanner
	logger     interfaces.Logger
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// NewScanLowStockHandler constructs a handler that delegates to the provided scanner instance.
func NewScanLowStockHandler(scanner StockScanner, logger interfaces.Logger, opts ...ScanHandlerOption) *ScanLowStockHandler {
	cfg := scanHandlerConfig{
		cronConfig: command.HandlerConfig{
			Expression: "@daily",
		},
		timeout: commands.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &ScanLowStockHandler{
		scanner:    scanner,
		logger:     commands.EnsureLogger(logger),
		cronConfig: cfg.cronConfig,
		timeout:    cfg.timeout,
	}
}

// Execute satisfies command.Commander[ScanLowStockCommand].
func (h *ScanLowStockHandler) Execute(ctx context.Context, msg ScanLowStockCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return commands.WrapContextError(err)
	}

	alerted, err := h.scanner.ScanLowStock(ctx)
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"operation": "inventory.scan_low_stock",
		"alerted":   alerted,
	}).Info("inventory.command.scan.completed")
	return nil
}

// CronHandler satisfies command.CronCommand by binding the sweep to a cron runner.
func (h *ScanLowStockHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), ScanLowStockCommand{})
	}
}

// CronOptions satisfies command.CronCommand by returning the configured cron metadata.
func (h *ScanLowStockHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler exposes the scan handler to CLI integrations.
func (h *ScanLowStockHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for the low-stock sweep.
func (h *ScanLowStockHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"inventory", "scan"},
		Group:       "inventory",
		Description: "Run the low-stock sweep and alert families below threshold",
	}
}
