package di

import (
	"context"
	"fmt"

	"github.com/goliatone/go-nestsync/internal/billing"
	"github.com/goliatone/go-nestsync/internal/inventory"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/notifications"
	"github.com/goliatone/go-nestsync/internal/schemadoc"
	"github.com/goliatone/go-nestsync/internal/users"
)

// Bootstrap seeds the plan catalog, publishes the schema catalog, and books
// the recurring jobs. Every step is idempotent so it can run on each startup.
func (c *Container) Bootstrap(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.seedPlans(ctx); err != nil {
		return err
	}
	if err := c.publishSchemas(ctx); err != nil {
		return err
	}
	return c.scheduleRecurring(ctx)
}

func (c *Container) seedPlans(ctx context.Context) error {
	logger := logging.BillingLogger(c.loggerProvider)
	if !c.Config.Features.Billing {
		logger.Debug("billing.bootstrap.skip", "reason", "feature_disabled")
		return nil
	}

	backend := "memory"
	if c.bunDB != nil {
		backend = "bun"
	}
	logger.Info("billing.bootstrap.start", "backend", backend)

	if err := billing.SeedPlans(ctx, c.planRepo, c.clock().UTC()); err != nil {
		return fmt.Errorf("di: seed plans: %w", err)
	}

	logger.Info("billing.bootstrap.complete", "backend", backend)
	return nil
}

func (c *Container) publishSchemas(ctx context.Context) error {
	resources := []schemadoc.Resource{
		{Name: "consent_record", Plural: "consent_records", Title: "Consent Record", Description: "Consent grant or withdrawal appended to a user's PIPEDA ledger.", Schema: users.ConsentSchema()},
		{Name: "notification_preference", Plural: "notification_preferences", Title: "Notification Preference", Description: "Per-user delivery settings: channels, quiet hours, thresholds, digest.", Schema: notifications.PreferenceSchema()},
		{Name: "inventory_item", Plural: "inventory_items", Title: "Inventory Item", Description: "One diaper purchase tracked against a child's stock.", Schema: inventory.ItemSchema()},
		{Name: "usage_log", Plural: "usage_logs", Title: "Usage Log", Description: "One recorded diaper change, optionally pinned to a purchase.", Schema: inventory.UsageSchema()},
	}
	if err := c.catalog.Publish(ctx, resources...); err != nil {
		return fmt.Errorf("di: publish schemas: %w", err)
	}

	logging.ModuleLogger(c.loggerProvider, "").Debug("schema.bootstrap.complete", "resources", len(resources))
	return nil
}

func (c *Container) scheduleRecurring(ctx context.Context) error {
	logger := logging.SchedulerLogger(c.loggerProvider)
	if !c.Config.Features.Scheduling {
		logger.Debug("scheduler.bootstrap.skip", "reason", "feature_disabled")
		return nil
	}

	if err := c.worker.ScheduleRecurring(ctx); err != nil {
		return fmt.Errorf("di: schedule recurring jobs: %w", err)
	}

	logger.Info("scheduler.bootstrap.complete")
	return nil
}
