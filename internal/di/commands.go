package di

import (
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-nestsync/internal/commands"
	auditcmd "github.com/goliatone/go-nestsync/internal/commands/audit"
	billingcmd "github.com/goliatone/go-nestsync/internal/commands/billing"
	inventorycmd "github.com/goliatone/go-nestsync/internal/commands/inventory"
	notifycmd "github.com/goliatone/go-nestsync/internal/commands/notifications"
)

// configureCommands subscribes the command handlers on the process-wide
// dispatcher. Subscriptions are retained so Close can release them, keeping
// repeated container setups in tests from stacking handlers.
func (c *Container) configureCommands() {
	if !c.Config.Commands.Enabled || !c.Config.Commands.AutoRegisterDispatcher {
		return
	}

	billingLog := commands.CommandLogger(c.loggerProvider, "billing")
	c.commandSubs = append(c.commandSubs,
		dispatcher.SubscribeCommand(billingcmd.NewProcessWebhookHandler(c.billingSvc, billingLog), runner.WithMaxRetries(1)).Unsubscribe,
		dispatcher.SubscribeCommand(billingcmd.NewExpireTrialHandler(c.billingSvc, billingLog)).Unsubscribe,
		dispatcher.SubscribeCommand(billingcmd.NewRemindTrialEndingHandler(c.billingSvc, billingLog)).Unsubscribe,
	)

	notifyLog := commands.CommandLogger(c.loggerProvider, "notifications")
	c.commandSubs = append(c.commandSubs,
		dispatcher.SubscribeCommand(notifycmd.NewDispatchNotificationsHandler(c.notificationSvc, notifyLog), runner.WithMaxRetries(1)).Unsubscribe,
	)

	inventoryLog := commands.CommandLogger(c.loggerProvider, "inventory")
	c.commandSubs = append(c.commandSubs,
		dispatcher.SubscribeCommand(inventorycmd.NewScanLowStockHandler(c.inventorySvc, inventoryLog)).Unsubscribe,
		dispatcher.SubscribeCommand(inventorycmd.NewLogUsageHandler(c.inventorySvc, inventoryLog)).Unsubscribe,
	)

	if c.auditor != nil {
		auditLog := commands.CommandLogger(c.loggerProvider, "audit")
		cleanup := auditcmd.NewCleanupAuditHandler(c.auditor, auditLog,
			auditcmd.CleanupWithRetainDays(c.Config.Commands.AuditRetentionDays))
		c.commandSubs = append(c.commandSubs,
			dispatcher.SubscribeCommand(cleanup).Unsubscribe,
			dispatcher.SubscribeCommand(auditcmd.NewExportAuditHandler(c.auditor, auditLog)).Unsubscribe,
			dispatcher.SubscribeCommand(auditcmd.NewReplayAuditHandler(c.worker, auditLog)).Unsubscribe,
		)
	}
}
