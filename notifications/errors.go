package notifications

import (
	"errors"
	"fmt"
)

var (
	ErrNotificationIDRequired = errors.New("notifications: notification id required")
	ErrUserIDRequired         = errors.New("notifications: user id required")
	ErrFamilyIDRequired       = errors.New("notifications: family id required")
	ErrTypeInvalid            = errors.New("notifications: type is invalid")
	ErrTitleRequired          = errors.New("notifications: title is required")
	ErrChannelInvalid         = errors.New("notifications: channel is invalid")
	ErrQuietHoursInvalid      = errors.New("notifications: quiet hours must be HH:MM")
	ErrThresholdInvalid       = errors.New("notifications: threshold must be between 1 and 30 days")
	ErrDigestInvalid          = errors.New("notifications: digest mode is invalid")
	ErrAlreadyDispatched      = errors.New("notifications: record already dispatched")
)

// NotFoundError represents missing records from notification lookups.
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
