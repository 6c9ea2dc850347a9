package notifications

import (
	"context"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
)

// Service exposes preference and delivery use cases.
type Service interface {
	Preferences(ctx context.Context, userID, familyID uuid.UUID) (*NotificationPreference, error)
	UpdatePreferences(ctx context.Context, req UpdatePreferencesRequest) (*NotificationPreference, error)
	Enqueue(ctx context.Context, req EnqueueNotificationRequest) ([]*Notification, error)
	List(ctx context.Context, req ListNotificationsRequest) ([]*Notification, error)
	MarkRead(ctx context.Context, req MarkReadRequest) (*Notification, error)
	Cancel(ctx context.Context, req CancelNotificationRequest) error
	Dispatch(ctx context.Context, batchSize int) (int, error)
}

// UpdatePreferencesRequest captures mutable preference fields. Nil pointers
// leave the stored value untouched.
type UpdatePreferencesRequest struct {
	UserID                uuid.UUID
	FamilyID              uuid.UUID
	Channels              []domain.Channel
	QuietHoursStart       *string
	QuietHoursEnd         *string
	LowStockThresholdDays *int
	SizeChangeAlerts      *bool
	MarketingOptIn        *bool
	Digest                *string
}

// EnqueueNotificationRequest queues a notification for one user within a
// family. The service fans out one record per enabled channel and defers
// ScheduledFor past the user's quiet hours.
type EnqueueNotificationRequest struct {
	UserID       uuid.UUID
	FamilyID     uuid.UUID
	Type         NotificationType
	Title        string
	Body         string
	Data         map[string]any
	ScheduledFor time.Time
}

// ListNotificationsRequest filters a user's notification feed.
type ListNotificationsRequest struct {
	UserID     uuid.UUID
	FamilyID   *uuid.UUID
	Status     string
	UnreadOnly bool
	Limit      int
}

// MarkReadRequest marks an in-app notification as read by its owner.
type MarkReadRequest struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
}

// CancelNotificationRequest cancels a pending record before dispatch.
type CancelNotificationRequest struct {
	NotificationID uuid.UUID
	CanceledBy     uuid.UUID
}
