package billing

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-nestsync/internal/identity"
)

// DefaultPlans returns the seeded catalog. Plan IDs derive from the plan
// code so every environment agrees on them.
func DefaultPlans(now time.Time) []*Plan {
	return []*Plan{
		{
			ID:         identity.PlanUUID(PlanFree),
			Code:       PlanFree,
			Name:       "Free",
			PriceCents: 0,
			Currency:   "cad",
			Interval:   IntervalMonth,
			TrialDays:  0,
			Features: map[string]any{
				"max_children":  1,
				"history_days":  30,
				"email_alerts":  false,
				"push_alerts":   false,
				"size_forecast": false,
			},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:         identity.PlanUUID(PlanStandard),
			Code:       PlanStandard,
			Name:       "Standard",
			PriceCents: 699,
			Currency:   "cad",
			Interval:   IntervalMonth,
			TrialDays:  14,
			Features: map[string]any{
				"max_children":  3,
				"history_days":  365,
				"email_alerts":  true,
				"push_alerts":   false,
				"size_forecast": true,
			},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:         identity.PlanUUID(PlanPremium),
			Code:       PlanPremium,
			Name:       "Premium",
			PriceCents: 1299,
			Currency:   "cad",
			Interval:   IntervalMonth,
			TrialDays:  14,
			Features: map[string]any{
				"max_children":  10,
				"history_days":  730,
				"email_alerts":  true,
				"push_alerts":   true,
				"size_forecast": true,
			},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// SeedPlans upserts the default catalog. Existing rows keep their ID and
// creation time but pick up pricing and feature changes.
func SeedPlans(ctx context.Context, plans PlanRepository, now time.Time) error {
	for _, plan := range DefaultPlans(now) {
		existing, err := plans.GetByCode(ctx, plan.Code)
		if err != nil {
			var notFound *NotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
			if _, err := plans.Create(ctx, plan); err != nil {
				return err
			}
			continue
		}

		existing.Name = plan.Name
		existing.PriceCents = plan.PriceCents
		existing.Currency = plan.Currency
		existing.Interval = plan.Interval
		existing.TrialDays = plan.TrialDays
		existing.Features = plan.Features
		existing.Active = plan.Active
		existing.UpdatedAt = now
		if _, err := plans.Update(ctx, existing); err != nil {
			return err
		}
	}
	return nil
}
