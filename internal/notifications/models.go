package notifications

import (
	nsnotifications "github.com/goliatone/go-nestsync/notifications"
)

type (
	NotificationPreference = nsnotifications.NotificationPreference
	Notification           = nsnotifications.Notification
	NotificationType       = nsnotifications.NotificationType
	NotFoundError          = nsnotifications.NotFoundError
)

const (
	TypeLowStock      = nsnotifications.TypeLowStock
	TypeTrialEnding   = nsnotifications.TypeTrialEnding
	TypeTrialExpired  = nsnotifications.TypeTrialExpired
	TypePaymentFailed = nsnotifications.TypePaymentFailed
	TypeInvite        = nsnotifications.TypeInvite
	TypeSizeAdvisory  = nsnotifications.TypeSizeAdvisory
	TypeSystem        = nsnotifications.TypeSystem

	StatusPending  = nsnotifications.StatusPending
	StatusSent     = nsnotifications.StatusSent
	StatusFailed   = nsnotifications.StatusFailed
	StatusCanceled = nsnotifications.StatusCanceled

	DigestImmediate = nsnotifications.DigestImmediate
	DigestDaily     = nsnotifications.DigestDaily

	DefaultLowStockThresholdDays = nsnotifications.DefaultLowStockThresholdDays
	MaxDispatchAttempts          = nsnotifications.MaxDispatchAttempts
)
