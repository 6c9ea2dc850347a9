package children

import (
	"fmt"
	"time"

	"github.com/goliatone/go-nestsync/internal/domain"
)

// sizeBand describes the comfort envelope of one diaper size on the Canadian
// retail scale. Bounds are upper edges; the last band is open ended.
type sizeBand struct {
	size         domain.DiaperSize
	maxWeightKg  float64
	maxAgeMonths int
}

// Retail charts overlap between adjacent sizes; these bounds pick the band a
// child should move out of rather than the one they can still squeeze into.
var sizeBands = []sizeBand{
	{domain.SizeNewborn, 4.5, 1},
	{domain.Size1, 6, 3},
	{domain.Size2, 8, 6},
	{domain.Size3, 12.5, 18},
	{domain.Size4, 16, 30},
	{domain.Size5, 20, 42},
	{domain.Size6, 25, 54},
	{domain.Size7, 0, 0},
}

func sizeForWeight(kg float64) domain.DiaperSize {
	for _, band := range sizeBands {
		if band.maxWeightKg > 0 && kg <= band.maxWeightKg {
			return band.size
		}
	}
	return sizeBands[len(sizeBands)-1].size
}

func sizeForAge(months int) domain.DiaperSize {
	for _, band := range sizeBands {
		if band.maxAgeMonths > 0 && months <= band.maxAgeMonths {
			return band.size
		}
	}
	return sizeBands[len(sizeBands)-1].size
}

// buildAdvisory compares the stored size against what the size table expects
// for the child's age and weight. It only ever recommends moving up.
func buildAdvisory(child *Child, at time.Time) *SizeAdvisory {
	age := child.AgeInMonths(at)
	advisory := &SizeAdvisory{
		ChildID:         child.ID,
		CurrentSize:     child.CurrentSize,
		RecommendedSize: child.CurrentSize,
		AgeMonths:       age,
		WeightKg:        child.WeightKg,
	}

	expected := sizeForAge(age)
	reason := fmt.Sprintf("age %d months is typical for %s", age, expected)
	if child.WeightKg != nil {
		if byWeight := sizeForWeight(*child.WeightKg); byWeight.Index() > expected.Index() {
			expected = byWeight
			reason = fmt.Sprintf("weight %.1f kg is above the %s range", *child.WeightKg, child.CurrentSize)
		}
	}

	if expected.Index() > child.CurrentSize.Index() {
		advisory.RecommendedSize = expected
		advisory.SizeUp = true
		advisory.Reason = reason
	}
	return advisory
}
