package inventory

import (
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UsageKind classifies a logged diaper change.
type UsageKind string

const (
	UsageWet    UsageKind = "wet"
	UsageSoiled UsageKind = "soiled"
	UsageBoth   UsageKind = "both"
	UsageDry    UsageKind = "dry"
)

// Valid reports whether the usage kind is known.
func (k UsageKind) Valid() bool {
	switch k {
	case UsageWet, UsageSoiled, UsageBoth, UsageDry:
		return true
	}
	return false
}

// InventoryItem records one diaper purchase. FamilyID is denormalized from
// the child so family scoping never needs a join.
type InventoryItem struct {
	bun.BaseModel `bun:"table:inventory_items,alias:ii"`

	ID                uuid.UUID         `bun:",pk,type:uuid" json:"id"`
	ChildID           uuid.UUID         `bun:"child_id,notnull,type:uuid" json:"child_id"`
	FamilyID          uuid.UUID         `bun:"family_id,notnull,type:uuid" json:"family_id"`
	Brand             string            `bun:"brand,notnull" json:"brand"`
	Size              domain.DiaperSize `bun:"size,notnull" json:"size"`
	QuantityPurchased int               `bun:"quantity_purchased,notnull" json:"quantity_purchased"`
	QuantityRemaining int               `bun:"quantity_remaining,notnull" json:"quantity_remaining"`
	CostCents         *int              `bun:"cost_cents" json:"cost_cents,omitempty"`
	PurchasedAt       time.Time         `bun:"purchased_at,notnull" json:"purchased_at"`
	DeletedAt         *time.Time        `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt         time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Depleted reports whether the item has no stock left.
func (i *InventoryItem) Depleted() bool {
	return i == nil || i.QuantityRemaining <= 0
}

// UsageLog records one diaper change. InventoryItemID is nil when usage was
// logged without stock to drain.
type UsageLog struct {
	bun.BaseModel `bun:"table:usage_logs,alias:ul"`

	ID              uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	ChildID         uuid.UUID  `bun:"child_id,notnull,type:uuid" json:"child_id"`
	FamilyID        uuid.UUID  `bun:"family_id,notnull,type:uuid" json:"family_id"`
	InventoryItemID *uuid.UUID `bun:"inventory_item_id,type:uuid,nullzero" json:"inventory_item_id,omitempty"`
	LoggedBy        uuid.UUID  `bun:"logged_by,notnull,type:uuid" json:"logged_by"`
	Kind            UsageKind  `bun:"kind,notnull,default:'wet'" json:"kind"`
	Notes           *string    `bun:"notes" json:"notes,omitempty"`
	OccurredAt      time.Time  `bun:"occurred_at,notnull" json:"occurred_at"`
	DeletedAt       *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// StockProjection summarizes remaining cover for one child and size. It is
// computed, never stored. DaysOfCover and RunOutAt are nil when the daily
// rate is zero: cover is unbounded.
type StockProjection struct {
	ChildID        uuid.UUID         `json:"child_id"`
	Size           domain.DiaperSize `json:"size"`
	TotalRemaining int               `json:"total_remaining"`
	DailyRate      float64           `json:"daily_rate"`
	DaysOfCover    *float64          `json:"days_of_cover,omitempty"`
	RunOutAt       *time.Time        `json:"run_out_at,omitempty"`
	Low            bool              `json:"low"`
}
