package billing

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewPlanRecordRepository(db *bun.DB) repository.Repository[*Plan] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Plan]{
		NewRecord: func() *Plan { return &Plan{} },
		GetID: func(p *Plan) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Plan, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(p *Plan) string {
			if p == nil {
				return ""
			}
			return p.Code
		},
	})
}

func NewSubscriptionRecordRepository(db *bun.DB) repository.Repository[*Subscription] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Subscription]{
		NewRecord: func() *Subscription { return &Subscription{} },
		GetID: func(s *Subscription) uuid.UUID {
			return s.ID
		},
		SetID: func(s *Subscription, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(s *Subscription) string {
			if s == nil {
				return ""
			}
			return s.ID.String()
		},
	})
}

func NewBillingRecordRepository(db *bun.DB) repository.Repository[*BillingRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*BillingRecord]{
		NewRecord: func() *BillingRecord { return &BillingRecord{} },
		GetID: func(r *BillingRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *BillingRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "provider_invoice_id"
		},
		GetIdentifierValue: func(r *BillingRecord) string {
			if r == nil {
				return ""
			}
			return r.ProviderInvoiceID
		},
	})
}

func NewWebhookEventRecordRepository(db *bun.DB) repository.Repository[*WebhookEvent] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*WebhookEvent]{
		NewRecord: func() *WebhookEvent { return &WebhookEvent{} },
		GetID: func(e *WebhookEvent) uuid.UUID {
			return e.ID
		},
		SetID: func(e *WebhookEvent, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "provider_event_id"
		},
		GetIdentifierValue: func(e *WebhookEvent) string {
			if e == nil {
				return ""
			}
			return e.ProviderEventID
		},
	})
}
