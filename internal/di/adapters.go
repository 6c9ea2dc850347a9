package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	nsfamilies "github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/billing"
	"github.com/goliatone/go-nestsync/internal/children"
	"github.com/goliatone/go-nestsync/internal/domain"
	"github.com/goliatone/go-nestsync/internal/families"
	"github.com/goliatone/go-nestsync/internal/notifications"
	"github.com/goliatone/go-nestsync/internal/users"
	"github.com/google/uuid"
)

// membershipDirectory resolves active family members straight from the member
// repository so notification fan-out does not route through the family
// service's own access checks.
type membershipDirectory struct {
	members families.MemberRepository
}

func (d membershipDirectory) ListActiveUserIDs(ctx context.Context, familyID uuid.UUID) ([]uuid.UUID, error) {
	records, err := d.members.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		if record.IsActive() {
			ids = append(ids, record.UserID)
		}
	}
	return ids, nil
}

func (c *Container) caregiverDirectory() notifications.CaregiverDirectory {
	return membershipDirectory{members: c.memberRepo}
}

// ownerProvinceResolver maps a family to the province of its longest-standing
// active owner, which anchors the tax treatment of that family's invoices.
type ownerProvinceResolver struct {
	members families.MemberRepository
	users   users.Service
}

func (r ownerProvinceResolver) OwnerProvince(ctx context.Context, familyID uuid.UUID) (domain.Province, error) {
	records, err := r.members.ListByFamily(ctx, familyID)
	if err != nil {
		return "", err
	}

	var owner *families.FamilyMember
	for _, record := range records {
		if !record.IsActive() || record.Role != domain.RoleOwner {
			continue
		}
		if owner == nil || record.JoinedAt.Before(owner.JoinedAt) {
			owner = record
		}
	}
	if owner == nil {
		return "", fmt.Errorf("family %s has no active owner", familyID)
	}

	account, err := r.users.Get(ctx, owner.UserID)
	if err != nil {
		return "", err
	}
	return account.Province, nil
}

func (c *Container) provinceResolver() billing.ProvinceResolver {
	return ownerProvinceResolver{members: c.memberRepo, users: c.userSvc}
}

// userDeleteCascade settles family state after an account is erased. Open
// subscriptions must be canceled before the final membership is removed:
// the last active member is necessarily an owner, so the cancellation still
// clears the billing access check.
func (c *Container) userDeleteCascade() users.DeleteHook {
	return func(ctx context.Context, userID uuid.UUID) error {
		memberships, err := c.memberRepo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		now := c.clock().UTC()
		for _, membership := range memberships {
			if !membership.IsActive() {
				continue
			}

			peers, err := c.memberRepo.ListByFamily(ctx, membership.FamilyID)
			if err != nil {
				return err
			}
			lastActive := true
			for _, peer := range peers {
				if peer.UserID != userID && peer.IsActive() {
					lastActive = false
					break
				}
			}

			if lastActive && c.billingSvc != nil {
				_, err := c.billingSvc.CancelSubscription(ctx, billing.CancelSubscriptionRequest{
					FamilyID:   membership.FamilyID,
					CanceledBy: userID,
					Reason:     "account deleted",
				})
				if err != nil {
					var notFound *billing.NotFoundError
					if !errors.As(err, &notFound) {
						return err
					}
				}
			}

			membership.Status = nsfamilies.MemberStatusRemoved
			membership.UpdatedAt = now
			if _, err := c.memberRepo.Update(ctx, membership); err != nil {
				return err
			}
		}
		return nil
	}
}

// childDeleteCascade tombstones the inventory and usage history of an erased
// child profile so projections and exports stop surfacing it.
func (c *Container) childDeleteCascade() children.DeleteHook {
	return func(ctx context.Context, childID uuid.UUID) error {
		now := c.clock().UTC()

		items, err := c.itemRepo.ListByChild(ctx, childID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.DeletedAt != nil {
				continue
			}
			stamp := now
			item.DeletedAt = &stamp
			item.UpdatedAt = now
			if _, err := c.itemRepo.Update(ctx, item); err != nil {
				return err
			}
		}

		logs, err := c.usageRepo.ListByChild(ctx, childID, time.Time{})
		if err != nil {
			return err
		}
		for _, usage := range logs {
			if usage.DeletedAt != nil {
				continue
			}
			stamp := now
			usage.DeletedAt = &stamp
			if _, err := c.usageRepo.Update(ctx, usage); err != nil {
				return err
			}
		}
		return nil
	}
}
