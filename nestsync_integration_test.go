package nestsync_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	nestsync "github.com/goliatone/go-nestsync"
	"github.com/goliatone/go-nestsync/billing"
	"github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/di"
	"github.com/goliatone/go-nestsync/internal/migrations"
	"github.com/goliatone/go-nestsync/inventory"
	"github.com/goliatone/go-nestsync/notifications"
	"github.com/goliatone/go-nestsync/pkg/testsupport"
	"github.com/goliatone/go-nestsync/users"
)

func TestModule_FamilyLifecycleWithBunAndMigrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bunDB := testsupport.NewBunSQLiteDB(t)

	ran, err := migrations.Apply(ctx, bunDB, nestsync.GetMigrationsFS())
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if len(ran) == 0 {
		t.Fatal("expected migrations to run against an empty database")
	}

	cfg := nestsync.DefaultConfig()
	cfg.Auth.DevMode = true
	cfg.Cache.Enabled = true
	cfg.Cache.DefaultTTL = 50 * time.Millisecond
	cfg.Features.Billing = true
	cfg.Billing.WebhookSecret = "whsec_integration"
	cfg.Features.Audit = true

	module, err := nestsync.New(cfg, di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(module.Close)

	if err := module.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	owner, err := module.Users().Register(ctx, users.RegisterUserRequest{
		Email:       "priya@example.ca",
		DisplayName: "Priya Sharma",
		Timezone:    "America/Toronto",
		Province:    domain.ProvinceON,
		Consents: []users.ConsentInput{
			{Type: users.ConsentPrivacyPolicy, Version: "2025-01", Granted: true},
			{Type: users.ConsentTermsOfService, Version: "2025-01", Granted: true},
			{Type: users.ConsentChildData, Version: "2025-01", Granted: true},
		},
	})
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}

	family, err := module.Families().Create(ctx, families.CreateFamilyRequest{
		Name:      "Sharma Household",
		CreatedBy: owner.ID,
	})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	if family.Slug == "" {
		t.Fatal("expected generated family slug")
	}

	child, err := module.Children().Create(ctx, children.CreateChildRequest{
		FamilyID:    family.ID,
		Name:        "Anik",
		BirthDate:   time.Now().AddDate(0, -4, 0),
		CurrentSize: domain.Size2,
		DailyUsage:  8,
		CreatedBy:   owner.ID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	item, err := module.Inventory().AddItem(ctx, inventory.AddItemRequest{
		ChildID:           child.ID,
		Brand:             "Pampers Baby Dry",
		Size:              domain.Size2,
		QuantityPurchased: 64,
		PurchasedAt:       time.Now().Add(-48 * time.Hour),
		AddedBy:           owner.ID,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	for _, kind := range []inventory.UsageKind{inventory.UsageWet, inventory.UsageSoiled} {
		if _, err := module.Inventory().LogUsage(ctx, inventory.LogUsageRequest{
			ChildID:    child.ID,
			ItemID:     &item.ID,
			Kind:       kind,
			OccurredAt: time.Now().Add(-time.Hour),
			LoggedBy:   owner.ID,
		}); err != nil {
			t.Fatalf("log %s usage: %v", kind, err)
		}
	}

	projections, err := module.Inventory().Projection(ctx, child.ID)
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	if len(projections) != 1 {
		t.Fatalf("expected one projection for size %s, got %d", domain.Size2, len(projections))
	}
	if projections[0].TotalRemaining != 62 {
		t.Fatalf("expected 62 diapers remaining after two changes, got %d", projections[0].TotalRemaining)
	}

	sub, err := module.Billing().StartSubscription(ctx, billing.StartSubscriptionRequest{
		FamilyID:  family.ID,
		PlanCode:  billing.PlanStandard,
		StartedBy: owner.ID,
	})
	if err != nil {
		t.Fatalf("start subscription: %v", err)
	}
	if sub.Status != billing.SubscriptionTrialing {
		t.Fatalf("expected trialing subscription, got %s", sub.Status)
	}
	if sub.TrialEndsAt == nil {
		t.Fatal("expected trial end timestamp on seeded standard plan")
	}

	prefs, err := module.Notifications().Preferences(ctx, owner.ID, family.ID)
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if prefs.LowStockThresholdDays != notifications.DefaultLowStockThresholdDays {
		t.Fatalf("expected default threshold %d, got %d", notifications.DefaultLowStockThresholdDays, prefs.LowStockThresholdDays)
	}

	threshold := 5
	updated, err := module.Notifications().UpdatePreferences(ctx, notifications.UpdatePreferencesRequest{
		UserID:                owner.ID,
		FamilyID:              family.ID,
		LowStockThresholdDays: &threshold,
	})
	if err != nil {
		t.Fatalf("update preferences: %v", err)
	}
	if updated.LowStockThresholdDays != threshold {
		t.Fatalf("expected threshold %d, got %d", threshold, updated.LowStockThresholdDays)
	}

	trail, err := module.Container().AuditRecorder().List(ctx)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(trail) == 0 {
		t.Fatal("expected audit events after starting a subscription")
	}
}

func TestModule_HandlerServesHealth(t *testing.T) {
	t.Parallel()

	cfg := nestsync.DefaultConfig()
	cfg.Auth.DevMode = true

	module, err := nestsync.New(cfg)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(module.Close)

	handler, err := module.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", resp.StatusCode)
	}
}
