package children

import (
	"context"
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
)

// Service exposes child profile use cases. Writes require the acting user to
// hold child_data consent and a write-capable family membership.
type Service interface {
	Create(ctx context.Context, req CreateChildRequest) (*Child, error)
	Get(ctx context.Context, id uuid.UUID) (*Child, error)
	List(ctx context.Context, familyID uuid.UUID) ([]*Child, error)
	Update(ctx context.Context, req UpdateChildRequest) (*Child, error)
	Delete(ctx context.Context, req DeleteChildRequest) error
	SizeAdvisory(ctx context.Context, childID uuid.UUID) (*SizeAdvisory, error)
}

// CreateChildRequest captures the information required to create a profile.
// DailyUsage defaults to DefaultDailyUsage when zero.
type CreateChildRequest struct {
	FamilyID    uuid.UUID
	Name        string
	BirthDate   time.Time
	CurrentSize domain.DiaperSize
	DailyUsage  int
	WeightKg    *float64
	Notes       *string
	CreatedBy   uuid.UUID
}

// UpdateChildRequest captures mutable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateChildRequest struct {
	ID          uuid.UUID
	Name        *string
	CurrentSize *domain.DiaperSize
	DailyUsage  *int
	WeightKg    *float64
	Notes       *string
	UpdatedBy   uuid.UUID
}

// DeleteChildRequest captures the information required to soft delete a
// profile together with its inventory and usage history.
type DeleteChildRequest struct {
	ID        uuid.UUID
	DeletedBy uuid.UUID
}
