package billing

import (
	"errors"
	"fmt"
)

var (
	ErrFamilyIDRequired       = errors.New("billing: family id required")
	ErrSubscriptionIDRequired = errors.New("billing: subscription id required")
	ErrActorRequired          = errors.New("billing: acting user id required")
	ErrPlanCodeRequired       = errors.New("billing: plan code required")
	ErrPlanInactive           = errors.New("billing: plan is not active")
	ErrSubscriptionExists     = errors.New("billing: family already has an open subscription")
	ErrInvalidSignature       = errors.New("billing: webhook signature verification failed")
	ErrPayloadRequired        = errors.New("billing: webhook payload required")
	ErrEventIDRequired        = errors.New("billing: provider event id required")
	ErrBillingDisabled        = errors.New("billing: feature disabled")
	ErrTrialNotExpired        = errors.New("billing: trial has not ended")
	ErrWebhookNotProcessable  = errors.New("billing: webhook event is not processable")
)

// NotFoundError represents missing records from billing lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}
