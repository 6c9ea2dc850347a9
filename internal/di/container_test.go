package di_test

import (
	"context"
	"errors"
	"testing"

	nestsync "github.com/goliatone/go-nestsync"
	"github.com/goliatone/go-nestsync/billing"
	"github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/di"
	"github.com/goliatone/go-nestsync/internal/identity"
	"github.com/goliatone/go-nestsync/internal/scheduler"
	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/goliatone/go-nestsync/users"
	"github.com/google/uuid"
)

// testConfig returns the default configuration with dev-mode auth so the
// fail-closed secret requirement does not trip container construction.
func testConfig() nestsync.Config {
	cfg := nestsync.DefaultConfig()
	cfg.Auth.DevMode = true
	return cfg
}

func TestContainerDefaults(t *testing.T) {
	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	if container.UserService() == nil {
		t.Fatal("expected user service to be configured")
	}
	if container.FamilyService() == nil {
		t.Fatal("expected family service to be configured")
	}
	if container.ChildService() == nil {
		t.Fatal("expected child service to be configured")
	}
	if container.InventoryService() == nil {
		t.Fatal("expected inventory service to be configured")
	}
	if container.NotificationService() == nil {
		t.Fatal("expected notification service to be configured")
	}
	if container.BillingService() == nil {
		t.Fatal("expected billing service to be configured")
	}
	if container.Worker() == nil {
		t.Fatal("expected job worker to be configured")
	}
	if container.Scheduler() == nil {
		t.Fatal("expected scheduler to be configured")
	}
	if container.SchemaCatalog() == nil {
		t.Fatal("expected schema catalog to be configured")
	}
	if container.MembershipPolicy() == nil {
		t.Fatal("expected membership policy to be configured")
	}
	if container.AuditRecorder() != nil {
		t.Fatal("expected audit recorder to be nil while the feature is disabled")
	}
}

func TestContainerInvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Server.WebhookRPS = 0

	if _, err := di.NewContainer(cfg); err == nil {
		t.Fatal("expected invalid configuration to be rejected")
	}
}

func TestContainerAuditRecorderEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Audit = true

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	recorder := container.AuditRecorder()
	if recorder == nil {
		t.Fatal("expected audit recorder when the feature is enabled")
	}
	events, err := recorder.List(context.Background())
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty audit log, got %d events", len(events))
	}
}

func TestContainerSchedulerOverride(t *testing.T) {
	external := scheduler.NewInMemory()

	container, err := di.NewContainer(testConfig(), di.WithScheduler(external))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	if container.Scheduler() != external {
		t.Fatal("expected the supplied scheduler to be retained")
	}
}

func TestContainerBillingDisabledRejectsWebhooks(t *testing.T) {
	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	_, err = container.BillingService().ReceiveWebhook(context.Background(), billing.ReceiveWebhookRequest{
		ProviderEventID: "evt_test_1",
		Type:            "invoice.paid",
		Payload:         []byte(`{"ok":true}`),
		Signature:       "deadbeef",
	})
	if !errors.Is(err, billing.ErrBillingDisabled) {
		t.Fatalf("expected ErrBillingDisabled, got %v", err)
	}
}

func TestContainerActivityHooksFanOut(t *testing.T) {
	hook := &activity.CaptureHook{}
	container, err := di.NewContainer(testConfig(), di.WithActivityHooks(activity.Hooks{hook}))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	actorID := uuid.New()
	created, err := container.FamilyService().Create(context.Background(), families.CreateFamilyRequest{
		Name:      "Tremblay Household",
		CreatedBy: actorID,
	})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	if len(hook.Events) != 1 {
		t.Fatalf("expected 1 activity event, got %d", len(hook.Events))
	}
	event := hook.Events[0]
	if event.Verb != "create" || event.ObjectType != "family" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
	if event.ActorID != actorID.String() {
		t.Fatalf("expected actor %s got %s", actorID, event.ActorID)
	}
	if event.Channel != "nestsync" {
		t.Fatalf("expected channel nestsync got %s", event.Channel)
	}
	if event.Metadata["slug"] != created.Slug {
		t.Fatalf("expected slug metadata %q got %v", created.Slug, event.Metadata["slug"])
	}
}

type capturingActivitySink struct {
	records []interfaces.ActivityRecord
}

func (s *capturingActivitySink) Log(_ context.Context, record interfaces.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

func TestContainerUserActivitySinkBridgesEvents(t *testing.T) {
	sink := &capturingActivitySink{}
	container, err := di.NewContainer(testConfig(), di.WithUserActivitySink(sink))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	actorID := uuid.New()
	created, err := container.FamilyService().Create(context.Background(), families.CreateFamilyRequest{
		Name:      "Lee Household",
		CreatedBy: actorID,
	})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 sink record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.Verb != "create" || record.ObjectType != "family" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.TenantID != created.ID {
		t.Fatalf("expected tenant %s got %s", created.ID, record.TenantID)
	}
}

func TestContainerBootstrapSeedsPlans(t *testing.T) {
	cfg := testConfig()
	cfg.Features.Billing = true
	cfg.Billing.WebhookSecret = "whsec_test"

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()
	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	plans, err := container.BillingService().Plans(ctx)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("expected 3 seeded plans, got %d", len(plans))
	}

	byCode := map[string]*billing.Plan{}
	for _, plan := range plans {
		byCode[plan.Code] = plan
	}
	standard := byCode[billing.PlanStandard]
	if standard == nil {
		t.Fatal("expected standard plan to be seeded")
	}
	if standard.ID != identity.PlanUUID(billing.PlanStandard) {
		t.Fatalf("expected deterministic standard plan id %s, got %s", identity.PlanUUID(billing.PlanStandard), standard.ID)
	}
	if standard.PriceCents != 699 || standard.TrialDays != 14 {
		t.Fatalf("unexpected standard plan pricing: %+v", standard)
	}

	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	plans, err = container.BillingService().Plans(ctx)
	if err != nil {
		t.Fatalf("list plans after reseed: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("expected reseed to stay idempotent, got %d plans", len(plans))
	}
}

func TestContainerBootstrapSkipsPlansWhenBillingDisabled(t *testing.T) {
	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()
	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	plans, err := container.BillingService().Plans(ctx)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 0 {
		t.Fatalf("expected no plans while billing is disabled, got %d", len(plans))
	}
}

func TestContainerBootstrapPublishesSchemas(t *testing.T) {
	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	if err := container.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	published := container.SchemaCatalog().Resources()
	want := []string{"consent_record", "inventory_item", "notification_preference", "usage_log"}
	if len(published) != len(want) {
		t.Fatalf("expected %d schema resources, got %v", len(want), published)
	}
	for i, name := range want {
		if published[i] != name {
			t.Fatalf("expected resource %q at %d, got %v", name, i, published)
		}
	}
}

func TestContainerBootstrapBooksRecurringJobs(t *testing.T) {
	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()
	if err := container.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if _, err := container.Scheduler().GetByKey(ctx, scheduler.DispatchJobKey()); err != nil {
		t.Fatalf("expected dispatch job to be booked: %v", err)
	}
	if _, err := container.Scheduler().GetByKey(ctx, scheduler.LowStockScanJobKey()); err != nil {
		t.Fatalf("expected low stock scan job to be booked: %v", err)
	}
}

func TestContainerServiceOverride(t *testing.T) {
	base, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new base container: %v", err)
	}

	override := base.UserService()
	container, err := di.NewContainer(testConfig(), di.WithUserService(override))
	if err != nil {
		t.Fatalf("new container with override: %v", err)
	}

	if container.UserService() != override {
		t.Fatal("expected the supplied user service to be retained")
	}
}

func registerAccount(t *testing.T, svc users.Service, email string) *users.User {
	t.Helper()

	account, err := svc.Register(context.Background(), users.RegisterUserRequest{
		Email:       email,
		DisplayName: "Avery Caregiver",
		Consents: []users.ConsentInput{
			{Type: users.ConsentPrivacyPolicy, Version: "2025-01", Granted: true},
			{Type: users.ConsentTermsOfService, Version: "2025-01", Granted: true},
			{Type: users.ConsentChildData, Version: "2025-01", Granted: true},
		},
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return account
}

func TestContainerConsentGateSpansServices(t *testing.T) {
	container, err := di.NewContainer(testConfig())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()
	account := registerAccount(t, container.UserService(), "consent-span@example.ca")

	granted, err := container.UserService().HasConsent(ctx, account.ID, users.ConsentChildData)
	if err != nil {
		t.Fatalf("has consent: %v", err)
	}
	if !granted {
		t.Fatal("expected child data consent to be granted at registration")
	}
}
