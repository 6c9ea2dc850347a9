package notifications

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewPreferenceRecordRepository(db *bun.DB) repository.Repository[*NotificationPreference] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*NotificationPreference]{
		NewRecord: func() *NotificationPreference { return &NotificationPreference{} },
		GetID: func(p *NotificationPreference) uuid.UUID {
			return p.ID
		},
		SetID: func(p *NotificationPreference, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(p *NotificationPreference) string {
			if p == nil {
				return ""
			}
			return p.ID.String()
		},
	})
}

func NewNotificationRecordRepository(db *bun.DB) repository.Repository[*Notification] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Notification]{
		NewRecord: func() *Notification { return &Notification{} },
		GetID: func(n *Notification) uuid.UUID {
			return n.ID
		},
		SetID: func(n *Notification, id uuid.UUID) {
			n.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(n *Notification) string {
			if n == nil {
				return ""
			}
			return n.ID.String()
		},
	})
}
