package notifications

import (
	"context"

	"github.com/google/uuid"
)

// FamilyThresholds resolves a family's effective low-stock threshold as the
// most sensitive (highest days) preference across its members, so an alert
// fires as soon as any caregiver wants to hear about it.
type FamilyThresholds struct {
	prefs PreferenceRepository
}

// NewFamilyThresholds builds the resolver used by the inventory service.
func NewFamilyThresholds(prefs PreferenceRepository) *FamilyThresholds {
	return &FamilyThresholds{prefs: prefs}
}

func (t *FamilyThresholds) LowStockThresholdDays(ctx context.Context, familyID uuid.UUID) (int, error) {
	records, err := t.prefs.ListByFamily(ctx, familyID)
	if err != nil {
		return 0, err
	}

	threshold := 0
	for _, record := range records {
		if record.LowStockThresholdDays > threshold {
			threshold = record.LowStockThresholdDays
		}
	}
	if threshold == 0 {
		threshold = DefaultLowStockThresholdDays
	}
	return threshold, nil
}
