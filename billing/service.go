package billing

import (
	"context"

	"github.com/google/uuid"
)

// Service exposes plan, subscription, and webhook use cases.
type Service interface {
	Plans(ctx context.Context) ([]*Plan, error)
	GetPlan(ctx context.Context, code string) (*Plan, error)
	StartSubscription(ctx context.Context, req StartSubscriptionRequest) (*Subscription, error)
	GetSubscription(ctx context.Context, familyID uuid.UUID) (*Subscription, error)
	CancelSubscription(ctx context.Context, req CancelSubscriptionRequest) (*Subscription, error)
	ListBillingRecords(ctx context.Context, familyID uuid.UUID) ([]*BillingRecord, error)
	ReceiveWebhook(ctx context.Context, req ReceiveWebhookRequest) (*WebhookEvent, error)
	ProcessWebhookEvent(ctx context.Context, eventID uuid.UUID) (*WebhookEvent, error)
	ExpireTrial(ctx context.Context, subscriptionID uuid.UUID) (*Subscription, error)
	RemindTrialEnding(ctx context.Context, subscriptionID uuid.UUID) error
}

// StartSubscriptionRequest opens a subscription for a family. Plans with
// trial days start trialing; zero-trial plans start active.
type StartSubscriptionRequest struct {
	FamilyID           uuid.UUID
	PlanCode           string
	ProviderCustomerID *string
	StartedBy          uuid.UUID
}

// CancelSubscriptionRequest cancels a family's open subscription.
type CancelSubscriptionRequest struct {
	FamilyID   uuid.UUID
	CanceledBy uuid.UUID
	Reason     string
}

// ReceiveWebhookRequest carries one raw provider callback. Signature is the
// hex HMAC-SHA256 of Payload under the shared webhook secret.
type ReceiveWebhookRequest struct {
	ProviderEventID string
	Type            string
	Payload         []byte
	Signature       string
}
