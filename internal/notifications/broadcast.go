package notifications

import (
	"context"

	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

// FamilyBroadcaster enqueues one notification per caregiver in a family.
// Billing and inventory hand it lifecycle events without knowing who the
// recipients are.
type FamilyBroadcaster struct {
	svc     Service
	members CaregiverDirectory
	logger  interfaces.Logger
}

// NewFamilyBroadcaster builds the fanout used by cross-feature notifiers.
func NewFamilyBroadcaster(svc Service, members CaregiverDirectory, logger interfaces.Logger) *FamilyBroadcaster {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &FamilyBroadcaster{svc: svc, members: members, logger: logger}
}

// NotifyFamily enqueues the notification for every active caregiver.
// Per-user enqueue failures are logged so one bad recipient cannot mute the
// rest.
func (b *FamilyBroadcaster) NotifyFamily(ctx context.Context, familyID uuid.UUID, kind NotificationType, data map[string]any) error {
	userIDs, err := b.members.ListActiveUserIDs(ctx, familyID)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		_, err := b.svc.Enqueue(ctx, EnqueueNotificationRequest{
			UserID:   userID,
			FamilyID: familyID,
			Type:     kind,
			Data:     data,
		})
		if err != nil {
			b.logger.Error("family notification enqueue failed",
				"user_id", userID.String(),
				"family_id", familyID.String(),
				"type", string(kind),
				"error", err,
			)
		}
	}
	return nil
}
