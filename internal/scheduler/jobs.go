package scheduler

import "github.com/google/uuid"

const (
	JobTypeTrialEnding      = "nestsync.billing.trial_ending"
	JobTypeTrialExpiry      = "nestsync.billing.trial_expiry"
	JobTypeWebhookRetry     = "nestsync.billing.webhook_retry"
	JobTypeLowStockScan     = "nestsync.inventory.low_stock_scan"
	JobTypeDispatch         = "nestsync.notifications.dispatch"
	JobTypeInvitationExpiry = "nestsync.families.invitation_expiry"
)

func TrialEndingJobKey(subscriptionID uuid.UUID) string {
	return "subscription:" + subscriptionID.String() + ":trial_ending"
}

func TrialExpiryJobKey(subscriptionID uuid.UUID) string {
	return "subscription:" + subscriptionID.String() + ":trial_expiry"
}

func WebhookRetryJobKey(eventID uuid.UUID) string {
	return "webhook_event:" + eventID.String() + ":retry"
}

func InvitationExpiryJobKey(invitationID uuid.UUID) string {
	return "invitation:" + invitationID.String() + ":expiry"
}

// LowStockScanJobKey identifies the singleton recurring stock scan.
func LowStockScanJobKey() string {
	return "inventory:low_stock_scan"
}

// DispatchJobKey identifies the singleton recurring notification dispatch run.
func DispatchJobKey() string {
	return "notifications:dispatch"
}
