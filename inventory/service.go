package inventory

import (
	"context"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
)

// Service exposes stock and usage tracking use cases.
type Service interface {
	AddItem(ctx context.Context, req AddItemRequest) (*InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	ListItems(ctx context.Context, childID uuid.UUID) ([]*InventoryItem, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*InventoryItem, error)
	DeleteItem(ctx context.Context, req DeleteItemRequest) error
	LogUsage(ctx context.Context, req LogUsageRequest) (*UsageLog, error)
	ListUsage(ctx context.Context, childID uuid.UUID, since time.Time) ([]*UsageLog, error)
	DeleteUsage(ctx context.Context, req DeleteUsageRequest) error
	Projection(ctx context.Context, childID uuid.UUID) ([]*StockProjection, error)
	ScanLowStock(ctx context.Context) (int, error)
}

// AddItemRequest captures one diaper purchase. Size defaults to the child's
// current size when empty; PurchasedAt defaults to now.
type AddItemRequest struct {
	ChildID           uuid.UUID
	Brand             string
	Size              domain.DiaperSize
	QuantityPurchased int
	CostCents         *int
	PurchasedAt       time.Time
	AddedBy           uuid.UUID
}

// UpdateItemRequest captures mutable item fields. Nil pointers leave the
// stored value untouched.
type UpdateItemRequest struct {
	ID                uuid.UUID
	Brand             *string
	QuantityRemaining *int
	CostCents         *int
	UpdatedBy         uuid.UUID
}

// DeleteItemRequest captures the information required to soft delete an item.
type DeleteItemRequest struct {
	ID        uuid.UUID
	DeletedBy uuid.UUID
}

// LogUsageRequest records one diaper change. ItemID pins the decrement to a
// specific purchase; when nil the oldest open item of the child's current
// size drains first. OccurredAt defaults to now.
type LogUsageRequest struct {
	ChildID    uuid.UUID
	ItemID     *uuid.UUID
	Kind       UsageKind
	Notes      *string
	OccurredAt time.Time
	LoggedBy   uuid.UUID
}

// DeleteUsageRequest removes a usage log and restores its decrement when the
// linked item still exists.
type DeleteUsageRequest struct {
	ID        uuid.UUID
	DeletedBy uuid.UUID
}
