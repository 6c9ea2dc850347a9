package notifications

import (
	"context"
	"fmt"

	nschildren "github.com/goliatone/go-nestsync/children"
	nsinventory "github.com/goliatone/go-nestsync/inventory"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/google/uuid"
)

// CaregiverDirectory lists the users who should hear about a family's stock.
type CaregiverDirectory interface {
	ListActiveUserIDs(ctx context.Context, familyID uuid.UUID) ([]uuid.UUID, error)
}

// LowStockAlerter turns inventory threshold crossings into low-stock
// notifications for every caregiver. It satisfies the inventory service's
// alert sink.
type LowStockAlerter struct {
	broadcast *FamilyBroadcaster
}

// NewLowStockAlerter builds the bridge from stock projections to the
// notification queue.
func NewLowStockAlerter(svc Service, members CaregiverDirectory, logger interfaces.Logger) *LowStockAlerter {
	return &LowStockAlerter{broadcast: NewFamilyBroadcaster(svc, members, logger)}
}

// LowStock fans the crossing out to the child's family.
func (a *LowStockAlerter) LowStock(ctx context.Context, child *nschildren.Child, projection *nsinventory.StockProjection) error {
	data := map[string]any{
		"child_id":        child.ID.String(),
		"child_name":      child.Name,
		"size":            string(projection.Size),
		"total_remaining": projection.TotalRemaining,
	}
	if projection.DaysOfCover != nil {
		data["days_of_cover"] = fmt.Sprintf("%.1f", *projection.DaysOfCover)
	}
	return a.broadcast.NotifyFamily(ctx, child.FamilyID, TypeLowStock, data)
}

// SizeAdvisoryAlerter turns size-up recommendations into notifications for
// every caregiver. It satisfies the inventory service's advisory sink.
type SizeAdvisoryAlerter struct {
	broadcast *FamilyBroadcaster
}

// NewSizeAdvisoryAlerter builds the bridge from sizing recommendations to the
// notification queue.
func NewSizeAdvisoryAlerter(svc Service, members CaregiverDirectory, logger interfaces.Logger) *SizeAdvisoryAlerter {
	return &SizeAdvisoryAlerter{broadcast: NewFamilyBroadcaster(svc, members, logger)}
}

// SizeAdvisory fans the recommendation out to the child's family. Recipients
// who turned size change alerts off are muted at enqueue time.
func (a *SizeAdvisoryAlerter) SizeAdvisory(ctx context.Context, child *nschildren.Child, advisory *nschildren.SizeAdvisory) error {
	data := map[string]any{
		"child_id":         child.ID.String(),
		"child_name":       child.Name,
		"current_size":     string(advisory.CurrentSize),
		"recommended_size": string(advisory.RecommendedSize),
		"reason":           advisory.Reason,
	}
	return a.broadcast.NotifyFamily(ctx, child.FamilyID, TypeSizeAdvisory, data)
}
