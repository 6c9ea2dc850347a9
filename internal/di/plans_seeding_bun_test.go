package di_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-nestsync/billing"
	"github.com/goliatone/go-nestsync/internal/di"
	"github.com/goliatone/go-nestsync/internal/identity"
	"github.com/goliatone/go-nestsync/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func createPlanTable(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*billing.Plan)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create plans table: %v", err)
	}
}

func TestContainerBootstrapSeedsPlansIntoEmptyDatabase(t *testing.T) {
	bunDB := testsupport.NewBunSQLiteDB(t)
	createPlanTable(t, bunDB)

	cfg := testConfig()
	cfg.Features.Billing = true
	cfg.Billing.WebhookSecret = "whsec_test"

	container, err := di.NewContainer(cfg, di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()
	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	count, err := bunDB.NewSelect().Model((*billing.Plan)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 plans, got %d", count)
	}

	var standard billing.Plan
	if err := bunDB.NewSelect().Model(&standard).Where("code = ?", billing.PlanStandard).Scan(ctx); err != nil {
		t.Fatalf("select standard plan: %v", err)
	}
	expected := identity.PlanUUID(billing.PlanStandard)
	if standard.ID != expected {
		t.Fatalf("expected deterministic standard plan id %s, got %s", expected, standard.ID)
	}
	if standard.PriceCents != 699 {
		t.Fatalf("expected standard plan price 699, got %d", standard.PriceCents)
	}
}

func TestContainerBootstrapSkipsPlanSeedingWhenBillingDisabled(t *testing.T) {
	bunDB := testsupport.NewBunSQLiteDB(t)
	createPlanTable(t, bunDB)

	container, err := di.NewContainer(testConfig(), di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()
	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	count, err := bunDB.NewSelect().Model((*billing.Plan)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no seeded plans, got %d", count)
	}
}

func TestContainerBootstrapRefreshesExistingPlanPricing(t *testing.T) {
	bunDB := testsupport.NewBunSQLiteDB(t)
	createPlanTable(t, bunDB)

	existingID := uuid.New()
	if _, err := bunDB.NewInsert().Model(&billing.Plan{
		ID:         existingID,
		Code:       billing.PlanStandard,
		Name:       "Standard Legacy",
		PriceCents: 499,
		Currency:   "cad",
		Interval:   billing.IntervalMonth,
		TrialDays:  7,
		Active:     true,
	}).Exec(context.Background()); err != nil {
		t.Fatalf("insert existing plan: %v", err)
	}

	cfg := testConfig()
	cfg.Features.Billing = true
	cfg.Billing.WebhookSecret = "whsec_test"

	container, err := di.NewContainer(cfg, di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()
	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	count, err := bunDB.NewSelect().Model((*billing.Plan)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 plans after reseeding, got %d", count)
	}

	var standard billing.Plan
	if err := bunDB.NewSelect().Model(&standard).Where("code = ?", billing.PlanStandard).Scan(ctx); err != nil {
		t.Fatalf("select standard plan: %v", err)
	}
	if standard.ID != existingID {
		t.Fatalf("expected existing plan id %s to survive reseeding, got %s", existingID, standard.ID)
	}
	if standard.PriceCents != 699 {
		t.Fatalf("expected refreshed price 699, got %d", standard.PriceCents)
	}
	if standard.TrialDays != 14 {
		t.Fatalf("expected refreshed trial days 14, got %d", standard.TrialDays)
	}
}
