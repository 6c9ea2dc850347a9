package notifications

import (
	nsnotifications "github.com/goliatone/go-nestsync/notifications"
)

// Service re-exports the public service contract.
type Service = nsnotifications.Service

type (
	UpdatePreferencesRequest   = nsnotifications.UpdatePreferencesRequest
	EnqueueNotificationRequest = nsnotifications.EnqueueNotificationRequest
	ListNotificationsRequest   = nsnotifications.ListNotificationsRequest
	MarkReadRequest            = nsnotifications.MarkReadRequest
	CancelNotificationRequest  = nsnotifications.CancelNotificationRequest
)

var (
	ErrNotificationIDRequired = nsnotifications.ErrNotificationIDRequired
	ErrUserIDRequired         = nsnotifications.ErrUserIDRequired
	ErrFamilyIDRequired       = nsnotifications.ErrFamilyIDRequired
	ErrTypeInvalid            = nsnotifications.ErrTypeInvalid
	ErrTitleRequired          = nsnotifications.ErrTitleRequired
	ErrChannelInvalid         = nsnotifications.ErrChannelInvalid
	ErrQuietHoursInvalid      = nsnotifications.ErrQuietHoursInvalid
	ErrThresholdInvalid       = nsnotifications.ErrThresholdInvalid
	ErrDigestInvalid          = nsnotifications.ErrDigestInvalid
	ErrAlreadyDispatched      = nsnotifications.ErrAlreadyDispatched
)
