package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/internal/billing"
	"github.com/goliatone/go-nestsync/internal/children"
	"github.com/goliatone/go-nestsync/internal/families"
	"github.com/goliatone/go-nestsync/internal/inventory"
	"github.com/goliatone/go-nestsync/internal/notifications"
	"github.com/goliatone/go-nestsync/internal/scheduler"
	"github.com/goliatone/go-nestsync/internal/schemadoc"
	"github.com/goliatone/go-nestsync/internal/users"
	nsusers "github.com/goliatone/go-nestsync/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	testAuthSecret    = "nestsync-test-signing-secret"
	testWebhookSecret = "whsec_http_test"
)

type memoryRegistry struct {
	docs map[string]map[string]any
}

func (r *memoryRegistry) Register(_ context.Context, name, _ string, doc map[string]any) error {
	if r.docs == nil {
		r.docs = map[string]map[string]any{}
	}
	r.docs[name] = doc
	return nil
}

func (r *memoryRegistry) Get(name string) (map[string]any, bool) {
	doc, ok := r.docs[name]
	return doc, ok
}

type staticProvinces struct {
	province domain.Province
}

func (s *staticProvinces) OwnerProvince(context.Context, uuid.UUID) (domain.Province, error) {
	return s.province, nil
}

type staticPinger struct {
	err error
}

func (p *staticPinger) PingContext(context.Context) error {
	return p.err
}

type apiFixture struct {
	mux           *http.ServeMux
	users         users.Service
	userRepo      *users.MemoryUserRepository
	families      families.Service
	children      children.Service
	inventory     inventory.Service
	notifications notifications.Service
	billing       billing.Service
	now           time.Time
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()

	now := time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	userRepo := users.NewMemoryUserRepository()
	userSvc := users.NewService(userRepo, users.NewMemoryConsentRepository(), users.WithClock(clock))

	jobs := scheduler.NewInMemory(scheduler.WithClock(clock))
	familySvc := families.NewService(
		families.NewMemoryFamilyRepository(),
		families.NewMemoryMemberRepository(),
		families.NewMemoryInvitationRepository(),
		families.WithClock(clock),
		families.WithScheduler(jobs),
	)
	policy := families.NewMembershipPolicy(familySvc)

	childSvc := children.NewService(children.NewMemoryChildRepository(),
		children.WithClock(clock),
		children.WithConsentChecker(userSvc),
		children.WithAccessPolicy(policy),
	)
	inventorySvc := inventory.NewService(
		inventory.NewMemoryItemRepository(),
		inventory.NewMemoryUsageRepository(),
		childSvc,
		inventory.WithClock(clock),
		inventory.WithConsentChecker(userSvc),
		inventory.WithAccessPolicy(policy),
	)
	notificationSvc := notifications.NewService(
		notifications.NewMemoryPreferenceRepository(),
		notifications.NewMemoryNotificationRepository(),
		userSvc,
		notifications.WithClock(clock),
		notifications.WithConsentChecker(userSvc),
	)

	plans := billing.NewMemoryPlanRepository()
	if err := billing.SeedPlans(context.Background(), plans, now); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	billingSvc := billing.NewService(plans,
		billing.NewMemorySubscriptionRepository(),
		billing.NewMemoryBillingRecordRepository(),
		billing.NewMemoryWebhookRepository(),
		billing.WithClock(clock),
		billing.WithWebhookSecret(testWebhookSecret),
		billing.WithAccessPolicy(policy),
		billing.WithProvinceResolver(&staticProvinces{province: domain.ProvinceON}),
		billing.WithScheduler(jobs),
	)

	catalog := schemadoc.NewCatalog(&memoryRegistry{}, "1.0.0")
	if err := catalog.Publish(context.Background(),
		schemadoc.Resource{Name: "consent_record", Schema: users.ConsentSchema()},
		schemadoc.Resource{Name: "notification_preference", Schema: notifications.PreferenceSchema()},
	); err != nil {
		t.Fatalf("publish schemas: %v", err)
	}

	auth := NewAuthenticator(AuthenticatorOptions{
		Secret:   testAuthSecret,
		Issuer:   "supabase",
		Audience: "authenticated",
		DevMode:  true,
		Users:    userSvc,
		Families: familySvc,
		Clock:    clock,
	})

	api := New(
		WithAuthenticator(auth),
		WithUserService(userSvc),
		WithFamilyService(familySvc),
		WithChildService(childSvc),
		WithInventoryService(inventorySvc),
		WithNotificationService(notificationSvc),
		WithBillingService(billingSvc),
		WithSchemaCatalog(catalog),
		WithInfo(Info{Name: "nestsync", Version: "test", Environment: "test"}),
	)
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		t.Fatalf("register api: %v", err)
	}

	return &apiFixture{
		mux:           mux,
		users:         userSvc,
		userRepo:      userRepo,
		families:      familySvc,
		children:      childSvc,
		inventory:     inventorySvc,
		notifications: notificationSvc,
		billing:       billingSvc,
		now:           now,
	}
}

// registerUser seeds an account with every data consent granted so fixtures
// can create children without tripping the consent gate.
func (fx *apiFixture) registerUser(t *testing.T, email string) *nsusers.User {
	t.Helper()

	grants := []nsusers.ConsentType{
		nsusers.ConsentPrivacyPolicy,
		nsusers.ConsentTermsOfService,
		nsusers.ConsentChildData,
	}
	consents := make([]nsusers.ConsentInput, 0, len(grants))
	for _, consentType := range grants {
		consents = append(consents, nsusers.ConsentInput{
			Type:    consentType,
			Version: "2025-01",
			Granted: true,
		})
	}

	record, err := fx.users.Register(context.Background(), nsusers.RegisterUserRequest{
		Email:       email,
		DisplayName: "Test Caregiver",
		Timezone:    "America/Toronto",
		Province:    domain.ProvinceON,
		Method:      nsusers.ConsentMethodSignup,
		Consents:    consents,
	})
	if err != nil {
		t.Fatalf("register user %s: %v", email, err)
	}
	return record
}

func (fx *apiFixture) suspendUser(t *testing.T, id uuid.UUID) {
	t.Helper()
	record, err := fx.userRepo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	record.Status = nsusers.UserStatusSuspended
	if _, err := fx.userRepo.Update(context.Background(), record); err != nil {
		t.Fatalf("suspend user: %v", err)
	}
}

// doJSONRequest performs one request against the mux. A non-nil actor rides
// the dev header the fixture authenticator accepts.
func doJSONRequest(t *testing.T, mux *http.ServeMux, method, path string, actor uuid.UUID, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set(devActorHeader, actor.String())
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func doBearerRequest(t *testing.T, mux *http.ServeMux, method, path, token string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func mintToken(t *testing.T, secret string, subject uuid.UUID, email string, metadata map[string]any, issued time.Time) string {
	t.Helper()
	claims := &accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    "supabase",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
		Email:        email,
		UserMetadata: metadata,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAPIRegisterRequiresMux(t *testing.T) {
	api := New()
	if err := api.Register(nil); err == nil {
		t.Fatal("expected error for nil mux")
	}
}

func TestAPISystemEndpoints(t *testing.T) {
	fx := setupAPI(t)

	rec := doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/healthz", uuid.Nil, nil, http.StatusOK)
	var health map[string]string
	decodeJSONBody(t, rec, &health)
	if health["status"] != "ok" {
		t.Fatalf("expected ok health status, got %q", health["status"])
	}

	// No pinger wired, so readiness matches liveness.
	doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/readyz", uuid.Nil, nil, http.StatusOK)

	rec = doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/info", uuid.Nil, nil, http.StatusOK)
	var info Info
	decodeJSONBody(t, rec, &info)
	if info.Name != "nestsync" || info.Version != "test" {
		t.Fatalf("unexpected info identity: %+v", info)
	}
	if info.Environment != "test" {
		t.Fatalf("expected test environment, got %q", info.Environment)
	}
}

func TestAPIReadyzReportsPingFailure(t *testing.T) {
	api := New(WithPinger(&staticPinger{err: errors.New("connection refused")}))
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		t.Fatalf("register api: %v", err)
	}

	rec := doJSONRequest(t, mux, http.MethodGet, "/api/v1/readyz", uuid.Nil, nil, http.StatusServiceUnavailable)
	var resp errorResponse
	decodeJSONBody(t, rec, &resp)
	if resp.Error != "not_ready" {
		t.Fatalf("expected not_ready, got %q", resp.Error)
	}

	healthy := New(WithPinger(&staticPinger{}))
	healthyMux := http.NewServeMux()
	if err := healthy.Register(healthyMux); err != nil {
		t.Fatalf("register api: %v", err)
	}
	doJSONRequest(t, healthyMux, http.MethodGet, "/api/v1/readyz", uuid.Nil, nil, http.StatusOK)
}

func TestAPIAuthenticationGates(t *testing.T) {
	fx := setupAPI(t)

	rec := doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me", uuid.Nil, nil, http.StatusUnauthorized)
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate challenge, got %q", rec.Header().Get("WWW-Authenticate"))
	}

	// Dev header for an account that does not exist.
	rec = doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me", uuid.New(), nil, http.StatusForbidden)
	var resp errorResponse
	decodeJSONBody(t, rec, &resp)
	if resp.Error != "forbidden" {
		t.Fatalf("expected forbidden, got %q", resp.Error)
	}

	suspended := fx.registerUser(t, "paused@example.ca")
	fx.suspendUser(t, suspended.ID)
	rec = doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me", suspended.ID, nil, http.StatusForbidden)
	decodeJSONBody(t, rec, &resp)
	if resp.Error != "account_suspended" {
		t.Fatalf("expected account_suspended, got %q", resp.Error)
	}

	doBearerRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me", "not-a-jwt", nil, http.StatusUnauthorized)

	forged := mintToken(t, "some-other-secret", uuid.New(), "mallory@example.ca", nil, fx.now)
	doBearerRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me", forged, nil, http.StatusUnauthorized)
}

func TestAPIBearerTokenProvisionsOnFirstSight(t *testing.T) {
	fx := setupAPI(t)

	subject := uuid.New()
	token := mintToken(t, testAuthSecret, subject, "jordan@example.ca", map[string]any{
		"display_name":    "Jordan",
		"province":        "bc",
		"consent_version": "2025-02",
	}, fx.now)

	rec := doBearerRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me", token, nil, http.StatusOK)
	var account nsusers.User
	decodeJSONBody(t, rec, &account)
	if account.ID != subject {
		t.Fatalf("expected account id %s, got %s", subject, account.ID)
	}
	if account.Email != "jordan@example.ca" {
		t.Fatalf("expected token email, got %q", account.Email)
	}
	if account.DisplayName != "Jordan" {
		t.Fatalf("expected display name from metadata, got %q", account.DisplayName)
	}
	if account.Province != domain.ProvinceBC {
		t.Fatalf("expected province BC, got %q", account.Province)
	}

	rec = doBearerRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me/consents", token, nil, http.StatusOK)
	var status map[nsusers.ConsentType]*nsusers.ConsentRecord
	decodeJSONBody(t, rec, &status)
	for _, required := range nsusers.RequiredConsents() {
		record := status[required]
		if record == nil || !record.Granted {
			t.Fatalf("expected %s granted on first sight", required)
		}
		if record.Version != "2025-02" {
			t.Fatalf("expected consent version from metadata, got %q", record.Version)
		}
		if record.Method != nsusers.ConsentMethodSignup {
			t.Fatalf("expected signup method, got %q", record.Method)
		}
	}

	// A second request resolves the same account instead of re-provisioning.
	rec = doBearerRequest(t, fx.mux, http.MethodGet, "/api/v1/users/me", token, nil, http.StatusOK)
	var again nsusers.User
	decodeJSONBody(t, rec, &again)
	if again.ID != subject {
		t.Fatalf("expected replay to resolve %s, got %s", subject, again.ID)
	}
}

func TestAPISchemaEndpoints(t *testing.T) {
	fx := setupAPI(t)
	actor := fx.registerUser(t, "owner@example.ca")

	doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/schemas", uuid.Nil, nil, http.StatusUnauthorized)

	rec := doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/schemas", actor.ID, nil, http.StatusOK)
	var list struct {
		Resources []string `json:"resources"`
	}
	decodeJSONBody(t, rec, &list)
	if len(list.Resources) != 2 || list.Resources[0] != "consent_record" || list.Resources[1] != "notification_preference" {
		t.Fatalf("unexpected schema listing: %v", list.Resources)
	}

	rec = doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/schemas/notification_preference", actor.ID, nil, http.StatusOK)
	var doc map[string]any
	decodeJSONBody(t, rec, &doc)
	if doc["openapi"] == nil {
		t.Fatal("expected an openapi document")
	}

	doJSONRequest(t, fx.mux, http.MethodGet, "/api/v1/schemas/unknown", actor.ID, nil, http.StatusNotFound)
}
