package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/internal/audit"
	"github.com/goliatone/go-nestsync/internal/events"
	"github.com/goliatone/go-nestsync/internal/identity"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/scheduler"
	nsnotifications "github.com/goliatone/go-nestsync/notifications"
	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

// trialEndingLead is how far ahead of trial expiry the reminder fires.
const trialEndingLead = 3 * 24 * time.Hour

// webhookRetryDelay spaces retry jobs for failed webhook processing.
const webhookRetryDelay = 5 * time.Minute

// errWebhookExists signals a lost create race on the provider event id.
// Callers re-read the stored event instead of failing.
var errWebhookExists = errors.New("billing: webhook event already stored")

// PlanRepository persists the plan catalog.
type PlanRepository interface {
	Create(ctx context.Context, record *Plan) (*Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	Update(ctx context.Context, record *Plan) (*Plan, error)
}

// SubscriptionRepository persists subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, record *Subscription) (*Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	GetOpenByFamily(ctx context.Context, familyID uuid.UUID) (*Subscription, error)
	GetByProviderSubscriptionID(ctx context.Context, providerID string) (*Subscription, error)
	Update(ctx context.Context, record *Subscription) (*Subscription, error)
}

// RecordRepository persists billing records.
type RecordRepository interface {
	Create(ctx context.Context, record *BillingRecord) (*BillingRecord, error)
	GetByProviderInvoiceID(ctx context.Context, invoiceID string) (*BillingRecord, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*BillingRecord, error)
	Update(ctx context.Context, record *BillingRecord) (*BillingRecord, error)
}

// WebhookRepository persists provider callbacks.
type WebhookRepository interface {
	Create(ctx context.Context, record *WebhookEvent) (*WebhookEvent, error)
	GetByID(ctx context.Context, id uuid.UUID) (*WebhookEvent, error)
	GetByProviderEventID(ctx context.Context, providerEventID string) (*WebhookEvent, error)
	Update(ctx context.Context, record *WebhookEvent) (*WebhookEvent, error)
}

// AccessPolicy decides whether an actor may manage a family's subscription.
type AccessPolicy interface {
	CanManage(ctx context.Context, familyID, userID uuid.UUID) error
}

// ProvinceResolver supplies the family owner's province for tax computation.
type ProvinceResolver interface {
	OwnerProvince(ctx context.Context, familyID uuid.UUID) (domain.Province, error)
}

// FamilyNotifier fans billing lifecycle notices out to a family's caregivers.
type FamilyNotifier interface {
	NotifyFamily(ctx context.Context, familyID uuid.UUID, kind nsnotifications.NotificationType, data map[string]any) error
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		s.now = clock
	}
}

type IDGenerator func() uuid.UUID

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWebhookSecret sets the shared secret for webhook signature checks.
func WithWebhookSecret(secret string) ServiceOption {
	return func(s *service) {
		s.secret = []byte(secret)
	}
}

// WithAccessPolicy wires the family membership policy for owner-only writes.
func WithAccessPolicy(policy AccessPolicy) ServiceOption {
	return func(s *service) {
		s.policy = policy
	}
}

// WithProvinceResolver wires the owner province lookup for tax computation.
func WithProvinceResolver(resolver ProvinceResolver) ServiceOption {
	return func(s *service) {
		s.provinces = resolver
	}
}

// WithFamilyNotifier wires delivery of billing lifecycle notifications.
func WithFamilyNotifier(notifier FamilyNotifier) ServiceOption {
	return func(s *service) {
		s.notifier = notifier
	}
}

// WithScheduler wires the job scheduler for trial reminders and webhook
// retries.
func WithScheduler(jobs interfaces.Scheduler) ServiceOption {
	return func(s *service) {
		s.jobs = jobs
	}
}

// WithAuditRecorder wires the recorder for subscription transitions.
func WithAuditRecorder(recorder audit.Recorder) ServiceOption {
	return func(s *service) {
		s.audit = recorder
	}
}

// WithEventPublisher wires the bus used for billing.webhook integration
// events.
func WithEventPublisher(publisher events.Publisher) ServiceOption {
	return func(s *service) {
		s.publisher = publisher
	}
}

// WithActivityEmitter attaches the activity emitter for billing events.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		s.activity = emitter
	}
}

// service implements Service.
type service struct {
	plans     PlanRepository
	subs      SubscriptionRepository
	records   RecordRepository
	webhooks  WebhookRepository
	policy    AccessPolicy
	provinces ProvinceResolver
	notifier  FamilyNotifier
	jobs      interfaces.Scheduler
	audit     audit.Recorder
	activity  *activity.Emitter
	publisher events.Publisher
	secret    []byte
	now       func() time.Time
	id        IDGenerator
	logger    interfaces.Logger
}

// NewService constructs a billing service.
func NewService(plans PlanRepository, subs SubscriptionRepository, records RecordRepository, webhooks WebhookRepository, opts ...ServiceOption) Service {
	s := &service{
		plans:    plans,
		subs:     subs,
		records:  records,
		webhooks: webhooks,
		now:      time.Now,
		id:       uuid.New,
		logger:   logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Plans returns the active catalog, cheapest first.
func (s *service) Plans(ctx context.Context) ([]*Plan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*Plan, 0, len(plans))
	for _, plan := range plans {
		if plan.Active {
			active = append(active, plan)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].PriceCents < active[j].PriceCents
	})
	return active, nil
}

func (s *service) GetPlan(ctx context.Context, code string) (*Plan, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrPlanCodeRequired
	}
	return s.plans.GetByCode(ctx, code)
}

// StartSubscription opens a subscription for the family. Plans with trial
// days start trialing and schedule the reminder and expiry jobs.
func (s *service) StartSubscription(ctx context.Context, req StartSubscriptionRequest) (*Subscription, error) {
	if req.FamilyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	if req.StartedBy == uuid.Nil {
		return nil, ErrActorRequired
	}
	if err := s.requireManage(ctx, req.FamilyID, req.StartedBy); err != nil {
		return nil, err
	}

	plan, err := s.GetPlan(ctx, req.PlanCode)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}

	existing, err := s.subs.GetOpenByFamily(ctx, req.FamilyID)
	if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if existing.Open() {
		return nil, ErrSubscriptionExists
	}

	now := s.now().UTC()
	record := &Subscription{
		ID:                 s.id(),
		FamilyID:           req.FamilyID,
		PlanID:             plan.ID,
		ProviderCustomerID: req.ProviderCustomerID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if plan.TrialDays > 0 {
		trialEndsAt := now.Add(time.Duration(plan.TrialDays) * 24 * time.Hour)
		record.Status = SubscriptionTrialing
		record.TrialEndsAt = &trialEndsAt
	} else {
		periodEnd := advancePeriod(now, plan.Interval)
		record.Status = SubscriptionActive
		record.CurrentPeriodEnd = &periodEnd
	}

	created, err := s.subs.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	created.Plan = plan

	if created.Status == SubscriptionTrialing {
		s.scheduleTrialJobs(ctx, created)
	}

	s.recordAudit(ctx, audit.Event{
		EntityType: "subscription",
		EntityID:   created.ID.String(),
		Action:     "start",
		ActorID:    req.StartedBy.String(),
		OccurredAt: now,
		Metadata:   map[string]any{"plan": plan.Code, "status": created.Status},
	})
	s.activity.Emit(ctx, activity.Event{
		Verb:       "create",
		ActorID:    req.StartedBy.String(),
		TenantID:   created.FamilyID.String(),
		ObjectType: "subscription",
		ObjectID:   created.ID.String(),
		Metadata:   map[string]any{"plan": plan.Code, "status": created.Status},
	})
	s.logger.Info("subscription started",
		"subscription_id", created.ID.String(),
		"family_id", created.FamilyID.String(),
		"plan", plan.Code,
		"status", created.Status,
	)
	return created, nil
}

// GetSubscription returns the family's open subscription with its plan.
func (s *service) GetSubscription(ctx context.Context, familyID uuid.UUID) (*Subscription, error) {
	if familyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}

	record, err := s.subs.GetOpenByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	s.attachPlan(ctx, record)
	return record, nil
}

// CancelSubscription closes the family's open subscription and drops its
// trial jobs.
func (s *service) CancelSubscription(ctx context.Context, req CancelSubscriptionRequest) (*Subscription, error) {
	if req.FamilyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	if req.CanceledBy == uuid.Nil {
		return nil, ErrActorRequired
	}
	if err := s.requireManage(ctx, req.FamilyID, req.CanceledBy); err != nil {
		return nil, err
	}

	record, err := s.subs.GetOpenByFamily(ctx, req.FamilyID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record.Status = SubscriptionCanceled
	record.CanceledAt = &now
	record.UpdatedAt = now

	updated, err := s.subs.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	s.cancelTrialJobs(ctx, updated.ID)
	s.attachPlan(ctx, updated)

	metadata := map[string]any{}
	if req.Reason != "" {
		metadata["reason"] = req.Reason
	}
	s.recordAudit(ctx, audit.Event{
		EntityType: "subscription",
		EntityID:   updated.ID.String(),
		Action:     "cancel",
		ActorID:    req.CanceledBy.String(),
		OccurredAt: now,
		Metadata:   metadata,
	})
	s.activity.Emit(ctx, activity.Event{
		Verb:       "cancel",
		ActorID:    req.CanceledBy.String(),
		TenantID:   updated.FamilyID.String(),
		ObjectType: "subscription",
		ObjectID:   updated.ID.String(),
	})
	s.logger.Info("subscription canceled",
		"subscription_id", updated.ID.String(),
		"family_id", updated.FamilyID.String(),
	)
	return updated, nil
}

func (s *service) ListBillingRecords(ctx context.Context, familyID uuid.UUID) ([]*BillingRecord, error) {
	if familyID == uuid.Nil {
		return nil, ErrFamilyIDRequired
	}
	return s.records.ListByFamily(ctx, familyID)
}

// ReceiveWebhook verifies, stores, and processes one provider callback.
// Replays of a known provider event return the stored outcome untouched.
// Processing failures leave the event failed and schedule a retry job; the
// receipt itself still succeeds.
func (s *service) ReceiveWebhook(ctx context.Context, req ReceiveWebhookRequest) (*WebhookEvent, error) {
	if strings.TrimSpace(req.ProviderEventID) == "" {
		return nil, ErrEventIDRequired
	}
	if len(req.Payload) == 0 {
		return nil, ErrPayloadRequired
	}
	if err := s.verifySignature(req.Payload, req.Signature); err != nil {
		return nil, err
	}

	existing, err := s.webhooks.GetByProviderEventID(ctx, req.ProviderEventID)
	if err == nil {
		s.logger.Info("webhook replay, returning stored event",
			"provider_event_id", req.ProviderEventID,
			"status", existing.Status,
		)
		return existing, nil
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	now := s.now().UTC()
	event := &WebhookEvent{
		ID:              s.id(),
		ProviderEventID: strings.TrimSpace(req.ProviderEventID),
		Type:            strings.TrimSpace(req.Type),
		Payload:         json.RawMessage(req.Payload),
		Signature:       req.Signature,
		Status:          WebhookPending,
		ReceivedAt:      now,
	}
	stored, err := s.webhooks.Create(ctx, event)
	if err != nil {
		if errors.Is(err, errWebhookExists) {
			return s.webhooks.GetByProviderEventID(ctx, req.ProviderEventID)
		}
		return nil, err
	}

	processed, err := s.ProcessWebhookEvent(ctx, stored.ID)
	if err != nil {
		s.scheduleWebhookRetry(ctx, stored.ID)
		if processed != nil {
			return processed, nil
		}
		return stored, nil
	}
	return processed, nil
}

// verifySignature checks the hex HMAC-SHA256 of the raw payload with a
// constant-time compare.
func (s *service) verifySignature(payload []byte, signature string) error {
	if len(s.secret) == 0 {
		return ErrBillingDisabled
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignPayload computes the hex HMAC-SHA256 signature the receiver expects.
// Exported for tests and local tooling that simulate provider callbacks.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// webhookPayload is the subset of provider payload fields the processor
// reads. Unknown fields pass through untouched in the stored raw payload.
type webhookPayload struct {
	ProviderCustomerID     string `json:"provider_customer_id"`
	ProviderSubscriptionID string `json:"provider_subscription_id"`
	ProviderInvoiceID      string `json:"provider_invoice_id"`
	AmountCents            int    `json:"amount_cents"`
	Currency               string `json:"currency"`
	Status                 string `json:"status"`
	PeriodEnd              string `json:"period_end"`
}

// ProcessWebhookEvent applies one stored event to subscription state.
// Processed and skipped events replay their original outcome.
func (s *service) ProcessWebhookEvent(ctx context.Context, eventID uuid.UUID) (*WebhookEvent, error) {
	if eventID == uuid.Nil {
		return nil, ErrEventIDRequired
	}
	event, err := s.webhooks.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	switch event.Status {
	case WebhookProcessed, WebhookSkipped:
		return event, nil
	case WebhookPending, WebhookFailed:
	default:
		return event, ErrWebhookNotProcessable
	}

	now := s.now().UTC()
	event.Attempts++

	outcome, err := s.applyWebhook(ctx, event, now)
	if err != nil {
		event.Status = WebhookFailed
		event.LastError = err.Error()
		if _, updateErr := s.webhooks.Update(ctx, event); updateErr != nil {
			s.logger.Error("webhook state update failed",
				"event_id", event.ID.String(), "error", updateErr)
		}
		s.logger.Error("webhook processing failed",
			"event_id", event.ID.String(),
			"type", event.Type,
			"attempts", event.Attempts,
			"error", err,
		)
		return event, err
	}

	event.Status = outcome
	event.LastError = ""
	event.ProcessedAt = &now
	updated, err := s.webhooks.Update(ctx, event)
	if err != nil {
		return event, err
	}

	s.recordAudit(ctx, audit.Event{
		EntityType: "webhook_event",
		EntityID:   updated.ID.String(),
		Action:     "process",
		ActorID:    identity.SystemUserUUID().String(),
		OccurredAt: now,
		Metadata:   map[string]any{"type": updated.Type, "status": updated.Status},
	})
	s.logger.Info("webhook processed",
		"event_id", updated.ID.String(),
		"type", updated.Type,
		"status", updated.Status,
	)
	s.publishWebhookProcessed(ctx, updated)
	return updated, nil
}

// publishWebhookProcessed emits the integration event for downstream
// consumers. Failures only log.
func (s *service) publishWebhookProcessed(ctx context.Context, event *WebhookEvent) {
	if s.publisher == nil {
		return
	}
	payload := map[string]any{
		"event_id":          event.ID.String(),
		"provider_event_id": event.ProviderEventID,
		"type":              event.Type,
		"status":            event.Status,
	}
	if err := s.publisher.Publish(ctx, events.SubjectBillingWebhook, payload); err != nil {
		s.logger.Error("webhook event publish failed", "event_id", event.ID.String(), "error", err)
	}
}

// applyWebhook dispatches on the event type and returns the terminal status.
func (s *service) applyWebhook(ctx context.Context, event *WebhookEvent, now time.Time) (string, error) {
	var payload webhookPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return "", fmt.Errorf("billing: decode webhook payload: %w", err)
	}

	switch event.Type {
	case EventInvoicePaid:
		return s.applyInvoicePaid(ctx, payload, now)
	case EventInvoicePaymentFailed:
		return s.applyPaymentFailed(ctx, payload, now)
	case EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, payload, now)
	case EventSubscriptionUpdated:
		return s.applySubscriptionUpdated(ctx, payload, now)
	default:
		s.logger.Warn("unknown webhook type, skipping",
			"event_id", event.ID.String(), "type", event.Type)
		return WebhookSkipped, nil
	}
}

func (s *service) applyInvoicePaid(ctx context.Context, payload webhookPayload, now time.Time) (string, error) {
	sub, ok, err := s.subscriptionFor(ctx, payload.ProviderSubscriptionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return WebhookSkipped, nil
	}

	if err := s.upsertBillingRecord(ctx, sub, payload, RecordPaid, now); err != nil {
		return "", err
	}

	sub.Status = SubscriptionActive
	periodEnd := s.resolvePeriodEnd(ctx, sub, payload.PeriodEnd, now)
	sub.CurrentPeriodEnd = &periodEnd
	sub.TrialEndsAt = nil
	sub.UpdatedAt = now
	if payload.ProviderCustomerID != "" && sub.ProviderCustomerID == nil {
		customerID := payload.ProviderCustomerID
		sub.ProviderCustomerID = &customerID
	}
	if _, err := s.subs.Update(ctx, sub); err != nil {
		return "", err
	}
	s.cancelTrialJobs(ctx, sub.ID)
	return WebhookProcessed, nil
}

func (s *service) applyPaymentFailed(ctx context.Context, payload webhookPayload, now time.Time) (string, error) {
	sub, ok, err := s.subscriptionFor(ctx, payload.ProviderSubscriptionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return WebhookSkipped, nil
	}

	if payload.ProviderInvoiceID != "" {
		if err := s.upsertBillingRecord(ctx, sub, payload, RecordFailed, now); err != nil {
			return "", err
		}
	}

	sub.Status = SubscriptionPastDue
	sub.UpdatedAt = now
	if _, err := s.subs.Update(ctx, sub); err != nil {
		return "", err
	}

	s.notifyFamily(ctx, sub.FamilyID, nsnotifications.TypePaymentFailed, map[string]any{
		"plan_name": s.planName(ctx, sub),
	})
	return WebhookProcessed, nil
}

func (s *service) applySubscriptionDeleted(ctx context.Context, payload webhookPayload, now time.Time) (string, error) {
	sub, ok, err := s.subscriptionFor(ctx, payload.ProviderSubscriptionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return WebhookSkipped, nil
	}
	if sub.Status == SubscriptionCanceled {
		return WebhookProcessed, nil
	}

	sub.Status = SubscriptionCanceled
	if sub.CanceledAt == nil {
		sub.CanceledAt = &now
	}
	sub.UpdatedAt = now
	if _, err := s.subs.Update(ctx, sub); err != nil {
		return "", err
	}
	s.cancelTrialJobs(ctx, sub.ID)
	return WebhookProcessed, nil
}

func (s *service) applySubscriptionUpdated(ctx context.Context, payload webhookPayload, now time.Time) (string, error) {
	sub, ok, err := s.subscriptionFor(ctx, payload.ProviderSubscriptionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return WebhookSkipped, nil
	}

	switch payload.Status {
	case SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled, SubscriptionExpired:
		sub.Status = payload.Status
	case "":
	default:
		s.logger.Warn("webhook carries unknown subscription status",
			"subscription_id", sub.ID.String(), "status", payload.Status)
	}
	if payload.PeriodEnd != "" {
		if periodEnd, err := time.Parse(time.RFC3339, payload.PeriodEnd); err == nil {
			utc := periodEnd.UTC()
			sub.CurrentPeriodEnd = &utc
		}
	}
	sub.UpdatedAt = now
	if _, err := s.subs.Update(ctx, sub); err != nil {
		return "", err
	}
	return WebhookProcessed, nil
}

// subscriptionFor resolves the provider subscription id. Unknown
// subscriptions are a skip, not a failure: the provider may race our own
// bookkeeping.
func (s *service) subscriptionFor(ctx context.Context, providerID string) (*Subscription, bool, error) {
	if strings.TrimSpace(providerID) == "" {
		s.logger.Warn("webhook missing provider subscription id, skipping")
		return nil, false, nil
	}
	sub, err := s.subs.GetByProviderSubscriptionID(ctx, providerID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			s.logger.Warn("webhook for unknown subscription, skipping",
				"provider_subscription_id", providerID)
			return nil, false, nil
		}
		return nil, false, err
	}
	return sub, true, nil
}

// upsertBillingRecord stores or refreshes the invoice row. Tax comes from
// the family owner's province, never from the provider.
func (s *service) upsertBillingRecord(ctx context.Context, sub *Subscription, payload webhookPayload, status string, now time.Time) error {
	if strings.TrimSpace(payload.ProviderInvoiceID) == "" {
		return errors.New("billing: webhook missing provider invoice id")
	}

	currency := strings.ToLower(payload.Currency)
	if currency == "" {
		currency = "cad"
	}

	existing, err := s.records.GetByProviderInvoiceID(ctx, payload.ProviderInvoiceID)
	if err == nil {
		existing.Status = status
		if status == RecordPaid && existing.PaidAt == nil {
			existing.PaidAt = &now
		}
		existing.UpdatedAt = now
		_, err = s.records.Update(ctx, existing)
		return err
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return err
	}

	record := &BillingRecord{
		ID:                s.id(),
		SubscriptionID:    sub.ID,
		FamilyID:          sub.FamilyID,
		ProviderInvoiceID: payload.ProviderInvoiceID,
		AmountCents:       payload.AmountCents,
		TaxCents:          s.taxFor(ctx, sub.FamilyID, payload.AmountCents),
		Currency:          currency,
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if status == RecordPaid {
		record.PaidAt = &now
	}
	_, err = s.records.Create(ctx, record)
	return err
}

func (s *service) taxFor(ctx context.Context, familyID uuid.UUID, amountCents int) int {
	if s.provinces == nil {
		return 0
	}
	province, err := s.provinces.OwnerProvince(ctx, familyID)
	if err != nil {
		s.logger.Warn("owner province lookup failed, storing zero tax",
			"family_id", familyID.String(), "error", err)
		return 0
	}
	if _, ok := RateFor(province); !ok {
		s.logger.Warn("no tax rate for province, storing zero tax",
			"family_id", familyID.String(), "province", string(province))
		return 0
	}
	return TaxCents(province, amountCents)
}

// ExpireTrial moves a trialing subscription to expired once its trial has
// ended. Subscriptions in any other state are left untouched.
func (s *service) ExpireTrial(ctx context.Context, subscriptionID uuid.UUID) (*Subscription, error) {
	if subscriptionID == uuid.Nil {
		return nil, ErrSubscriptionIDRequired
	}
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != SubscriptionTrialing {
		return sub, nil
	}

	now := s.now().UTC()
	if sub.TrialEndsAt == nil || sub.TrialEndsAt.After(now) {
		return nil, ErrTrialNotExpired
	}

	sub.Status = SubscriptionExpired
	sub.UpdatedAt = now
	updated, err := s.subs.Update(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.notifyFamily(ctx, updated.FamilyID, nsnotifications.TypeTrialExpired, map[string]any{
		"plan_name": s.planName(ctx, updated),
	})
	s.recordAudit(ctx, audit.Event{
		EntityType: "subscription",
		EntityID:   updated.ID.String(),
		Action:     "trial_expired",
		ActorID:    identity.SystemUserUUID().String(),
		OccurredAt: now,
	})
	s.logger.Info("trial expired",
		"subscription_id", updated.ID.String(),
		"family_id", updated.FamilyID.String(),
	)
	return updated, nil
}

// RemindTrialEnding notifies the family ahead of trial expiry. Subscriptions
// that left the trialing state are a no-op.
func (s *service) RemindTrialEnding(ctx context.Context, subscriptionID uuid.UUID) error {
	if subscriptionID == uuid.Nil {
		return ErrSubscriptionIDRequired
	}
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != SubscriptionTrialing || sub.TrialEndsAt == nil {
		return nil
	}

	now := s.now().UTC()
	daysLeft := int(sub.TrialEndsAt.Sub(now).Hours() / 24)
	if daysLeft < 0 {
		daysLeft = 0
	}
	s.notifyFamily(ctx, sub.FamilyID, nsnotifications.TypeTrialEnding, map[string]any{
		"plan_name":     s.planName(ctx, sub),
		"days_left":     daysLeft,
		"trial_ends_at": sub.TrialEndsAt.Format("January 2, 2006"),
	})
	return nil
}

func (s *service) requireManage(ctx context.Context, familyID, userID uuid.UUID) error {
	if s.policy == nil {
		return nil
	}
	return s.policy.CanManage(ctx, familyID, userID)
}

func (s *service) attachPlan(ctx context.Context, sub *Subscription) {
	if sub == nil || sub.Plan != nil {
		return
	}
	plan, err := s.plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		s.logger.Warn("plan lookup failed",
			"subscription_id", sub.ID.String(), "plan_id", sub.PlanID.String(), "error", err)
		return
	}
	sub.Plan = plan
}

func (s *service) planName(ctx context.Context, sub *Subscription) string {
	s.attachPlan(ctx, sub)
	if sub.Plan == nil {
		return "NestSync"
	}
	return sub.Plan.Name
}

// resolvePeriodEnd prefers the provider's period end and falls back to
// advancing by the plan interval.
func (s *service) resolvePeriodEnd(ctx context.Context, sub *Subscription, raw string, now time.Time) time.Time {
	if raw != "" {
		if periodEnd, err := time.Parse(time.RFC3339, raw); err == nil {
			return periodEnd.UTC()
		}
		s.logger.Warn("webhook period end unparseable, advancing by interval",
			"subscription_id", sub.ID.String(), "period_end", raw)
	}
	interval := IntervalMonth
	s.attachPlan(ctx, sub)
	if sub.Plan != nil {
		interval = sub.Plan.Interval
	}
	return advancePeriod(now, interval)
}

func advancePeriod(from time.Time, interval string) time.Time {
	if interval == IntervalYear {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

func (s *service) scheduleTrialJobs(ctx context.Context, sub *Subscription) {
	if s.jobs == nil || sub.TrialEndsAt == nil {
		return
	}

	payload := map[string]any{
		"subscription_id": sub.ID.String(),
		"family_id":       sub.FamilyID.String(),
	}
	if reminderAt := sub.TrialEndsAt.Add(-trialEndingLead); reminderAt.After(s.now().UTC()) {
		_, err := s.jobs.Enqueue(ctx, interfaces.JobSpec{
			Key:         scheduler.TrialEndingJobKey(sub.ID),
			Type:        scheduler.JobTypeTrialEnding,
			RunAt:       reminderAt,
			Payload:     payload,
			MaxAttempts: 3,
		})
		if err != nil {
			s.logger.Error("schedule trial reminder failed",
				"subscription_id", sub.ID.String(), "error", err)
		}
	}
	_, err := s.jobs.Enqueue(ctx, interfaces.JobSpec{
		Key:         scheduler.TrialExpiryJobKey(sub.ID),
		Type:        scheduler.JobTypeTrialExpiry,
		RunAt:       *sub.TrialEndsAt,
		Payload:     payload,
		MaxAttempts: 3,
	})
	if err != nil {
		s.logger.Error("schedule trial expiry failed",
			"subscription_id", sub.ID.String(), "error", err)
	}
}

func (s *service) cancelTrialJobs(ctx context.Context, subscriptionID uuid.UUID) {
	if s.jobs == nil {
		return
	}
	for _, key := range []string{
		scheduler.TrialEndingJobKey(subscriptionID),
		scheduler.TrialExpiryJobKey(subscriptionID),
	} {
		if err := s.jobs.CancelByKey(ctx, key); err != nil && !errors.Is(err, interfaces.ErrJobNotFound) {
			s.logger.Error("cancel trial job failed",
				"subscription_id", subscriptionID.String(), "key", key, "error", err)
		}
	}
}

func (s *service) scheduleWebhookRetry(ctx context.Context, eventID uuid.UUID) {
	if s.jobs == nil {
		return
	}
	_, err := s.jobs.Enqueue(ctx, interfaces.JobSpec{
		Key:         scheduler.WebhookRetryJobKey(eventID),
		Type:        scheduler.JobTypeWebhookRetry,
		RunAt:       s.now().UTC().Add(webhookRetryDelay),
		Payload:     map[string]any{"event_id": eventID.String()},
		MaxAttempts: 3,
	})
	if err != nil {
		s.logger.Error("schedule webhook retry failed",
			"event_id", eventID.String(), "error", err)
	}
}

func (s *service) notifyFamily(ctx context.Context, familyID uuid.UUID, kind nsnotifications.NotificationType, data map[string]any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyFamily(ctx, familyID, kind, data); err != nil {
		s.logger.Error("billing notification failed",
			"family_id", familyID.String(), "type", string(kind), "error", err)
	}
}

func (s *service) recordAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Error("audit record failed",
			"entity_type", event.EntityType, "action", event.Action, "error", err)
	}
}
