package billing

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryPlanRepository is an in-memory implementation for scaffolding and tests.
type MemoryPlanRepository struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*Plan
}

// NewMemoryPlanRepository creates an empty in-memory plan repository.
func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{
		plans: make(map[uuid.UUID]*Plan),
	}
}

func (m *MemoryPlanRepository) Create(_ context.Context, record *Plan) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := clonePlan(record)
	m.plans[copied.ID] = copied
	return clonePlan(copied), nil
}

func (m *MemoryPlanRepository) GetByID(_ context.Context, id uuid.UUID) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.plans[id]
	if !ok {
		return nil, &NotFoundError{Resource: "plan", Key: id.String()}
	}
	return clonePlan(record), nil
}

func (m *MemoryPlanRepository) GetByCode(_ context.Context, code string) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.plans {
		if record.Code == code {
			return clonePlan(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "plan", Key: code}
}

func (m *MemoryPlanRepository) List(_ context.Context) ([]*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Plan, 0, len(m.plans))
	for _, record := range m.plans {
		out = append(out, clonePlan(record))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriceCents < out[j].PriceCents
	})
	return out, nil
}

func (m *MemoryPlanRepository) Update(_ context.Context, record *Plan) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "plan", Key: record.ID.String()}
	}

	copied := clonePlan(record)
	m.plans[copied.ID] = copied
	return clonePlan(copied), nil
}

// MemorySubscriptionRepository is an in-memory implementation for scaffolding and tests.
type MemorySubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

// NewMemorySubscriptionRepository creates an empty in-memory subscription repository.
func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{
		subs: make(map[uuid.UUID]*Subscription),
	}
}

func (m *MemorySubscriptionRepository) Create(_ context.Context, record *Subscription) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneSubscription(record)
	m.subs[copied.ID] = copied
	return cloneSubscription(copied), nil
}

func (m *MemorySubscriptionRepository) GetByID(_ context.Context, id uuid.UUID) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.subs[id]
	if !ok {
		return nil, &NotFoundError{Resource: "subscription", Key: id.String()}
	}
	return cloneSubscription(record), nil
}

func (m *MemorySubscriptionRepository) GetOpenByFamily(_ context.Context, familyID uuid.UUID) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Subscription
	for _, record := range m.subs {
		if record.FamilyID != familyID || record.DeletedAt != nil || !record.Open() {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, &NotFoundError{Resource: "subscription", Key: familyID.String()}
	}
	return cloneSubscription(latest), nil
}

func (m *MemorySubscriptionRepository) GetByProviderSubscriptionID(_ context.Context, providerID string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.subs {
		if record.DeletedAt != nil {
			continue
		}
		if record.ProviderSubscriptionID != nil && *record.ProviderSubscriptionID == providerID {
			return cloneSubscription(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "subscription", Key: providerID}
}

func (m *MemorySubscriptionRepository) Update(_ context.Context, record *Subscription) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "subscription", Key: record.ID.String()}
	}

	copied := cloneSubscription(record)
	m.subs[copied.ID] = copied
	return cloneSubscription(copied), nil
}

// MemoryBillingRecordRepository is an in-memory implementation for scaffolding and tests.
type MemoryBillingRecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*BillingRecord
}

// NewMemoryBillingRecordRepository creates an empty in-memory billing record repository.
func NewMemoryBillingRecordRepository() *MemoryBillingRecordRepository {
	return &MemoryBillingRecordRepository{
		records: make(map[uuid.UUID]*BillingRecord),
	}
}

func (m *MemoryBillingRecordRepository) Create(_ context.Context, record *BillingRecord) (*BillingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneBillingRecord(record)
	m.records[copied.ID] = copied
	return cloneBillingRecord(copied), nil
}

func (m *MemoryBillingRecordRepository) GetByProviderInvoiceID(_ context.Context, invoiceID string) (*BillingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.records {
		if record.ProviderInvoiceID == invoiceID {
			return cloneBillingRecord(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "billing record", Key: invoiceID}
}

func (m *MemoryBillingRecordRepository) ListByFamily(_ context.Context, familyID uuid.UUID) ([]*BillingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*BillingRecord, 0)
	for _, record := range m.records {
		if record.FamilyID == familyID {
			out = append(out, cloneBillingRecord(record))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryBillingRecordRepository) Update(_ context.Context, record *BillingRecord) (*BillingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "billing record", Key: record.ID.String()}
	}

	copied := cloneBillingRecord(record)
	m.records[copied.ID] = copied
	return cloneBillingRecord(copied), nil
}

// MemoryWebhookRepository is an in-memory implementation for scaffolding and tests.
type MemoryWebhookRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*WebhookEvent
}

// NewMemoryWebhookRepository creates an empty in-memory webhook repository.
func NewMemoryWebhookRepository() *MemoryWebhookRepository {
	return &MemoryWebhookRepository{
		events: make(map[uuid.UUID]*WebhookEvent),
	}
}

func (m *MemoryWebhookRepository) Create(_ context.Context, record *WebhookEvent) (*WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.events {
		if existing.ProviderEventID == record.ProviderEventID {
			return nil, errWebhookExists
		}
	}

	copied := cloneWebhookEvent(record)
	m.events[copied.ID] = copied
	return cloneWebhookEvent(copied), nil
}

func (m *MemoryWebhookRepository) GetByID(_ context.Context, id uuid.UUID) (*WebhookEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.events[id]
	if !ok {
		return nil, &NotFoundError{Resource: "webhook event", Key: id.String()}
	}
	return cloneWebhookEvent(record), nil
}

func (m *MemoryWebhookRepository) GetByProviderEventID(_ context.Context, providerEventID string) (*WebhookEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.events {
		if record.ProviderEventID == providerEventID {
			return cloneWebhookEvent(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "webhook event", Key: providerEventID}
}

func (m *MemoryWebhookRepository) Update(_ context.Context, record *WebhookEvent) (*WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "webhook event", Key: record.ID.String()}
	}

	copied := cloneWebhookEvent(record)
	m.events[copied.ID] = copied
	return cloneWebhookEvent(copied), nil
}

func clonePlan(src *Plan) *Plan {
	if src == nil {
		return nil
	}
	copied := *src
	if src.Features != nil {
		features := make(map[string]any, len(src.Features))
		for key, value := range src.Features {
			features[key] = value
		}
		copied.Features = features
	}
	return &copied
}

func cloneSubscription(src *Subscription) *Subscription {
	if src == nil {
		return nil
	}
	copied := *src
	if src.ProviderCustomerID != nil {
		customerID := *src.ProviderCustomerID
		copied.ProviderCustomerID = &customerID
	}
	if src.ProviderSubscriptionID != nil {
		subscriptionID := *src.ProviderSubscriptionID
		copied.ProviderSubscriptionID = &subscriptionID
	}
	if src.TrialEndsAt != nil {
		trialEndsAt := *src.TrialEndsAt
		copied.TrialEndsAt = &trialEndsAt
	}
	if src.CurrentPeriodEnd != nil {
		periodEnd := *src.CurrentPeriodEnd
		copied.CurrentPeriodEnd = &periodEnd
	}
	if src.CanceledAt != nil {
		canceledAt := *src.CanceledAt
		copied.CanceledAt = &canceledAt
	}
	if src.DeletedAt != nil {
		deletedAt := *src.DeletedAt
		copied.DeletedAt = &deletedAt
	}
	copied.Plan = clonePlan(src.Plan)
	return &copied
}

func cloneBillingRecord(src *BillingRecord) *BillingRecord {
	if src == nil {
		return nil
	}
	copied := *src
	if src.PaidAt != nil {
		paidAt := *src.PaidAt
		copied.PaidAt = &paidAt
	}
	return &copied
}

func cloneWebhookEvent(src *WebhookEvent) *WebhookEvent {
	if src == nil {
		return nil
	}
	copied := *src
	if src.Payload != nil {
		copied.Payload = append([]byte(nil), src.Payload...)
	}
	if src.ProcessedAt != nil {
		processedAt := *src.ProcessedAt
		copied.ProcessedAt = &processedAt
	}
	return &copied
}
