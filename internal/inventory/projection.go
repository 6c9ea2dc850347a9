package inventory

import (
	"time"

	nschildren "github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/domain"
)

// DefaultLowStockThresholdDays flags stock expected to run out within this
// many days when no preference overrides it.
const DefaultLowStockThresholdDays = 3

// usageRateWindow is the trailing window used to derive the observed daily
// usage rate.
const usageRateWindow = 7 * 24 * time.Hour

// usageRate returns diaper changes per day observed over the trailing
// window. With nothing logged in the window it falls back to the child's
// expected daily usage.
func usageRate(expectedDaily int, logs []*UsageLog, now time.Time) float64 {
	cutoff := now.Add(-usageRateWindow)
	count := 0
	for _, entry := range logs {
		if entry.DeletedAt != nil {
			continue
		}
		if entry.OccurredAt.Before(cutoff) || entry.OccurredAt.After(now) {
			continue
		}
		count++
	}
	if count == 0 {
		return float64(expectedDaily)
	}
	return float64(count) / (usageRateWindow.Hours() / 24)
}

// projectSize computes remaining cover for one size. Low is only meaningful
// for the child's current size: nothing drains the others.
func projectSize(child *nschildren.Child, size domain.DiaperSize, remaining int, rate float64, thresholdDays int, now time.Time) *StockProjection {
	projection := &StockProjection{
		ChildID:        child.ID,
		Size:           size,
		TotalRemaining: remaining,
		DailyRate:      rate,
	}
	if rate <= 0 {
		return projection
	}

	cover := float64(remaining) / rate
	runOut := now.Add(time.Duration(cover * float64(24*time.Hour)))
	projection.DaysOfCover = &cover
	projection.RunOutAt = &runOut
	if size == child.CurrentSize {
		projection.Low = cover <= float64(thresholdDays)
	}
	return projection
}
