package billing

import (
	nsbilling "github.com/goliatone/go-nestsync/billing"
)

// Service re-exports the public service contract.
type Service = nsbilling.Service

type (
	StartSubscriptionRequest  = nsbilling.StartSubscriptionRequest
	CancelSubscriptionRequest = nsbilling.CancelSubscriptionRequest
	ReceiveWebhookRequest     = nsbilling.ReceiveWebhookRequest
)

var (
	ErrFamilyIDRequired       = nsbilling.ErrFamilyIDRequired
	ErrSubscriptionIDRequired = nsbilling.ErrSubscriptionIDRequired
	ErrActorRequired          = nsbilling.ErrActorRequired
	ErrPlanCodeRequired       = nsbilling.ErrPlanCodeRequired
	ErrPlanInactive           = nsbilling.ErrPlanInactive
	ErrSubscriptionExists     = nsbilling.ErrSubscriptionExists
	ErrInvalidSignature       = nsbilling.ErrInvalidSignature
	ErrPayloadRequired        = nsbilling.ErrPayloadRequired
	ErrEventIDRequired        = nsbilling.ErrEventIDRequired
	ErrBillingDisabled        = nsbilling.ErrBillingDisabled
	ErrTrialNotExpired        = nsbilling.ErrTrialNotExpired
	ErrWebhookNotProcessable  = nsbilling.ErrWebhookNotProcessable
)
