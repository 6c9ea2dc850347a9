package billing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Plan codes seeded by the catalog.
const (
	PlanFree     = "free"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// Plan billing intervals.
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Subscription statuses.
const (
	SubscriptionTrialing = "trialing"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
)

// Billing record statuses.
const (
	RecordPaid     = "paid"
	RecordFailed   = "failed"
	RecordRefunded = "refunded"
)

// Webhook event statuses.
const (
	WebhookPending   = "pending"
	WebhookProcessed = "processed"
	WebhookFailed    = "failed"
	WebhookSkipped   = "skipped"
)

// Webhook event types the processor understands. Unknown types are stored
// and marked skipped.
const (
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventSubscriptionUpdated  = "customer.subscription.updated"
)

// Plan is a catalog entry. IDs are deterministic from the plan code so
// seeded rows match across environments.
type Plan struct {
	bun.BaseModel `bun:"table:plans,alias:p"`

	ID         uuid.UUID      `bun:",pk,type:uuid"       json:"id"`
	Code       string         `bun:"code,notnull,unique" json:"code"`
	Name       string         `bun:"name,notnull"        json:"name"`
	PriceCents int            `bun:"price_cents,notnull" json:"price_cents"`
	Currency   string         `bun:"currency,notnull,default:'cad'" json:"currency"`
	Interval   string         `bun:"interval,notnull,default:'month'" json:"interval"`
	TrialDays  int            `bun:"trial_days,notnull,default:0" json:"trial_days"`
	Features   map[string]any `bun:"features,type:jsonb" json:"features,omitempty"`
	Active     bool           `bun:"active,notnull,default:true" json:"active"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Subscription links a family to a plan. At most one non-terminal
// subscription exists per family.
type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:s"`

	ID                     uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	FamilyID               uuid.UUID  `bun:"family_id,notnull,type:uuid" json:"family_id"`
	PlanID                 uuid.UUID  `bun:"plan_id,notnull,type:uuid" json:"plan_id"`
	Status                 string     `bun:"status,notnull,default:'trialing'" json:"status"`
	ProviderCustomerID     *string    `bun:"provider_customer_id" json:"provider_customer_id,omitempty"`
	ProviderSubscriptionID *string    `bun:"provider_subscription_id" json:"provider_subscription_id,omitempty"`
	TrialEndsAt            *time.Time `bun:"trial_ends_at,nullzero" json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd       *time.Time `bun:"current_period_end,nullzero" json:"current_period_end,omitempty"`
	CanceledAt             *time.Time `bun:"canceled_at,nullzero" json:"canceled_at,omitempty"`
	DeletedAt              *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt              time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt              time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Plan *Plan `bun:"rel:belongs-to,join:plan_id=id" json:"plan,omitempty"`
}

// Open reports whether the subscription still grants plan access.
func (s *Subscription) Open() bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue:
		return true
	}
	return false
}

// BillingRecord is one settled or attempted invoice. Amounts are integer
// cents; tax is computed from the family owner's province.
type BillingRecord struct {
	bun.BaseModel `bun:"table:billing_records,alias:br"`

	ID                uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	SubscriptionID    uuid.UUID  `bun:"subscription_id,notnull,type:uuid" json:"subscription_id"`
	FamilyID          uuid.UUID  `bun:"family_id,notnull,type:uuid" json:"family_id"`
	ProviderInvoiceID string     `bun:"provider_invoice_id,notnull,unique" json:"provider_invoice_id"`
	AmountCents       int        `bun:"amount_cents,notnull" json:"amount_cents"`
	TaxCents          int        `bun:"tax_cents,notnull,default:0" json:"tax_cents"`
	Currency          string     `bun:"currency,notnull,default:'cad'" json:"currency"`
	Status            string     `bun:"status,notnull,default:'paid'" json:"status"`
	PaidAt            *time.Time `bun:"paid_at,nullzero" json:"paid_at,omitempty"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// WebhookEvent stores one provider callback. ProviderEventID is the
// idempotency key; replays return the stored row untouched.
type WebhookEvent struct {
	bun.BaseModel `bun:"table:webhook_events,alias:we"`

	ID              uuid.UUID       `bun:",pk,type:uuid" json:"id"`
	ProviderEventID string          `bun:"provider_event_id,notnull,unique" json:"provider_event_id"`
	Type            string          `bun:"type,notnull" json:"type"`
	Payload         json.RawMessage `bun:"payload,type:jsonb" json:"payload,omitempty"`
	Signature       string          `bun:"signature" json:"-"`
	Status          string          `bun:"status,notnull,default:'pending'" json:"status"`
	Attempts        int             `bun:"attempts,notnull,default:0" json:"attempts"`
	LastError       string          `bun:"last_error" json:"last_error,omitempty"`
	ReceivedAt      time.Time       `bun:"received_at,nullzero,default:current_timestamp" json:"received_at"`
	ProcessedAt     *time.Time      `bun:"processed_at,nullzero" json:"processed_at,omitempty"`
}
