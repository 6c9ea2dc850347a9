package billing

import (
	nsbilling "github.com/goliatone/go-nestsync/billing"
)

type (
	Plan          = nsbilling.Plan
	Subscription  = nsbilling.Subscription
	BillingRecord = nsbilling.BillingRecord
	WebhookEvent  = nsbilling.WebhookEvent
	NotFoundError = nsbilling.NotFoundError
)

const (
	PlanFree     = nsbilling.PlanFree
	PlanStandard = nsbilling.PlanStandard
	PlanPremium  = nsbilling.PlanPremium

	IntervalMonth = nsbilling.IntervalMonth
	IntervalYear  = nsbilling.IntervalYear

	SubscriptionTrialing = nsbilling.SubscriptionTrialing
	SubscriptionActive   = nsbilling.SubscriptionActive
	SubscriptionPastDue  = nsbilling.SubscriptionPastDue
	SubscriptionCanceled = nsbilling.SubscriptionCanceled
	SubscriptionExpired  = nsbilling.SubscriptionExpired

	RecordPaid     = nsbilling.RecordPaid
	RecordFailed   = nsbilling.RecordFailed
	RecordRefunded = nsbilling.RecordRefunded

	WebhookPending   = nsbilling.WebhookPending
	WebhookProcessed = nsbilling.WebhookProcessed
	WebhookFailed    = nsbilling.WebhookFailed
	WebhookSkipped   = nsbilling.WebhookSkipped

	EventInvoicePaid          = nsbilling.EventInvoicePaid
	EventInvoicePaymentFailed = nsbilling.EventInvoicePaymentFailed
	EventSubscriptionDeleted  = nsbilling.EventSubscriptionDeleted
	EventSubscriptionUpdated  = nsbilling.EventSubscriptionUpdated
)
