package children

import (
	"time"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultDailyUsage is the expected diaper changes per day when a profile
// does not specify one.
const DefaultDailyUsage = 8

// Child is a child profile scoped to a family.
type Child struct {
	bun.BaseModel `bun:"table:children,alias:ch"`

	ID          uuid.UUID        `bun:",pk,type:uuid" json:"id"`
	FamilyID    uuid.UUID        `bun:"family_id,notnull,type:uuid" json:"family_id"`
	Name        string           `bun:"name,notnull" json:"name"`
	BirthDate   time.Time        `bun:"birth_date,notnull" json:"birth_date"`
	CurrentSize domain.DiaperSize `bun:"current_size,notnull,default:'newborn'" json:"current_size"`
	DailyUsage  int              `bun:"daily_usage,notnull,default:8" json:"daily_usage"`
	WeightKg    *float64         `bun:"weight_kg" json:"weight_kg,omitempty"`
	Notes       *string          `bun:"notes" json:"notes,omitempty"`
	DeletedAt   *time.Time       `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt   time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// AgeInMonths returns the child's age in whole months at the given instant.
func (c *Child) AgeInMonths(at time.Time) int {
	if c == nil || at.Before(c.BirthDate) {
		return 0
	}
	years := at.Year() - c.BirthDate.Year()
	months := int(at.Month()) - int(c.BirthDate.Month())
	total := years*12 + months
	if at.Day() < c.BirthDate.Day() {
		total--
	}
	if total < 0 {
		return 0
	}
	return total
}

// SizeAdvisory reports whether a child's profile suggests moving to the next
// diaper size.
type SizeAdvisory struct {
	ChildID         uuid.UUID         `json:"child_id"`
	CurrentSize     domain.DiaperSize `json:"current_size"`
	RecommendedSize domain.DiaperSize `json:"recommended_size"`
	SizeUp          bool              `json:"size_up"`
	Reason          string            `json:"reason,omitempty"`
	AgeMonths       int               `json:"age_months"`
	WeightKg        *float64          `json:"weight_kg,omitempty"`
}
