package inventory

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewInventoryItemRecordRepository(db *bun.DB) repository.Repository[*InventoryItem] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*InventoryItem]{
		NewRecord: func() *InventoryItem { return &InventoryItem{} },
		GetID: func(i *InventoryItem) uuid.UUID {
			return i.ID
		},
		SetID: func(i *InventoryItem, id uuid.UUID) {
			i.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(i *InventoryItem) string {
			if i == nil {
				return ""
			}
			return i.ID.String()
		},
	})
}

func NewUsageLogRecordRepository(db *bun.DB) repository.Repository[*UsageLog] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*UsageLog]{
		NewRecord: func() *UsageLog { return &UsageLog{} },
		GetID: func(u *UsageLog) uuid.UUID {
			return u.ID
		},
		SetID: func(u *UsageLog, id uuid.UUID) {
			u.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(u *UsageLog) string {
			if u == nil {
				return ""
			}
			return u.ID.String()
		},
	})
}
